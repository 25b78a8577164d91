package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"agenthub/internal/admin"
	"agenthub/internal/agents"
	"agenthub/internal/auth"
	"agenthub/internal/history"
	"agenthub/internal/quota"
	"agenthub/internal/session"
	"agenthub/internal/users"
	"agenthub/internal/voice"

	"github.com/sirupsen/logrus"
)

const maxAudioUploadSize = 15 << 20

type Handler struct {
	userService    *users.Service
	quotaService   *quota.Service
	historyService *history.Service
	voiceService   *voice.Service
	adminService   *admin.Service
	sessions       *session.Manager
	sendService    *session.Service
	jwtSigningKey  string
}

func NewHandler(
	userService *users.Service,
	quotaService *quota.Service,
	historyService *history.Service,
	voiceService *voice.Service,
	adminService *admin.Service,
	sessions *session.Manager,
	sendService *session.Service,
	jwtKey string,
) *Handler {
	return &Handler{
		userService:    userService,
		quotaService:   quotaService,
		historyService: historyService,
		voiceService:   voiceService,
		adminService:   adminService,
		sessions:       sessions,
		sendService:    sendService,
		jwtSigningKey:  jwtKey,
	}
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

type RegisterRequest struct {
	Login    string  `json:"login"`
	Password string  `json:"password"`
	Email    *string `json:"email,omitempty"`
}

type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

type AccountResponse struct {
	ID        int64     `json:"id"`
	Login     string    `json:"login"`
	Email     *string   `json:"email,omitempty"`
	Plan      string    `json:"plan"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *Handler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "Метод не разрешен")
		return
	}

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Некорректное тело запроса")
		return
	}

	if req.Login == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Логин и пароль обязательны")
		return
	}

	account, err := h.userService.Register(r.Context(), req.Login, req.Password, req.Email)
	if err != nil {
		if errors.Is(err, users.ErrUserAlreadyExists) {
			respondError(w, http.StatusConflict, "Пользователь с таким логином уже существует")
		} else {
			logrus.Errorf("Ошибка регистрации пользователя '%s': %v", req.Login, err)
			respondError(w, http.StatusInternalServerError, "Ошибка при регистрации пользователя")
		}
		return
	}

	respondJSON(w, http.StatusCreated, AccountResponse{
		ID:        account.ID,
		Login:     account.Login,
		Email:     account.Email,
		Plan:      account.Plan,
		CreatedAt: account.CreatedAt,
	})
}

func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "Метод не разрешен")
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Некорректное тело запроса")
		return
	}

	account, err := h.userService.Authenticate(r.Context(), req.Login, req.Password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			respondError(w, http.StatusUnauthorized, "Неверный логин или пароль")
		} else {
			logrus.Errorf("Ошибка аутентификации пользователя '%s': %v", req.Login, err)
			respondError(w, http.StatusInternalServerError, "Ошибка аутентификации")
		}
		return
	}

	token, err := auth.GenerateJWTToken(account.ID, h.jwtSigningKey, 24*time.Hour)
	if err != nil {
		logrus.Errorf("Ошибка генерации JWT токена: %v", err)
		respondError(w, http.StatusInternalServerError, "Ошибка при генерации токена")
		return
	}

	respondJSON(w, http.StatusOK, LoginResponse{Token: token})
}

type ChatRequest struct {
	Message    string              `json:"message"`
	AgentID    string              `json:"agentId"`
	Attachment *session.Attachment `json:"attachment,omitempty"`
}

type ChatResponse struct {
	Message           string `json:"message"`
	AgentID           string `json:"agentId"`
	ConversationsUsed int    `json:"conversations_used"`
	Plan              string `json:"plan"`
	ShowUpgradeNudge  bool   `json:"show_upgrade_nudge,omitempty"`
}

type QuotaBlockedResponse struct {
	Error             string `json:"error"`
	CanSend           bool   `json:"can_send"`
	ConversationsUsed int    `json:"conversations_used"`
	Plan              string `json:"plan"`
}

// ChatHandler проводит одну реплику по полному пути отправки. Блокировка
// по квоте — не ошибка, а отдельный ответ 429 с данными для окна апгрейда.
func (h *Handler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "Метод не разрешен")
		return
	}

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Пользователь не найден в токене")
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Некорректное тело запроса")
		return
	}
	if req.Message == "" || req.AgentID == "" {
		respondError(w, http.StatusBadRequest, "Поля message и agentId обязательны")
		return
	}

	sess, err := h.sessions.Open(r.Context(), userID, req.AgentID)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.sendService.Send(r.Context(), sess, req.Message, req.Attachment)
	switch {
	case errors.Is(err, session.ErrQuotaExceeded):
		respondJSON(w, http.StatusTooManyRequests, QuotaBlockedResponse{
			Error:             "Достигнут месячный лимит диалогов",
			CanSend:           false,
			ConversationsUsed: result.Quota.ConversationsUsed,
			Plan:              result.Quota.Plan,
		})
		return
	case errors.Is(err, session.ErrSendInFlight):
		respondError(w, http.StatusConflict, "Предыдущая отправка ещё не завершена")
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, "Не удалось отправить сообщение")
		return
	}

	respondJSON(w, http.StatusOK, ChatResponse{
		Message:           result.Reply.Content,
		AgentID:           req.AgentID,
		ConversationsUsed: result.Quota.ConversationsUsed,
		Plan:              result.Quota.Plan,
		ShowUpgradeNudge:  result.ShowNudge,
	})
}

type QuotaResponse struct {
	CanSend           bool   `json:"can_send"`
	ConversationsUsed int    `json:"conversations_used"`
	Plan              string `json:"plan"`
	ResetsAt          string `json:"resets_at,omitempty"`
}

// QuotaCheckHandler — кэшируемое чтение счётчика без резервирования.
// Само резервирование происходит атомарно внутри отправки.
func (h *Handler) QuotaCheckHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "Метод не разрешен")
		return
	}

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Пользователь не найден в токене")
		return
	}

	status, err := h.quotaService.Check(r.Context(), userID)
	if err != nil {
		logrus.Errorf("Ошибка проверки квоты пользователя %d: %v", userID, err)
		respondError(w, http.StatusInternalServerError, "Не удалось проверить лимит диалогов")
		return
	}

	resp := QuotaResponse{
		CanSend:           status.Allowed,
		ConversationsUsed: status.ConversationsUsed,
		Plan:              status.Plan,
	}
	if status.Plan == quota.PlanFree {
		resp.ResetsAt = status.ResetsAt.Format(time.RFC3339)
	}
	respondJSON(w, http.StatusOK, resp)
}

type HistoryResponse struct {
	Messages []session.Turn `json:"messages"`
}

func (h *Handler) GetHistoryHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "Метод не разрешен")
		return
	}

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Пользователь не найден в токене")
		return
	}

	agentID := r.URL.Query().Get("agentId")
	if _, ok := agents.Get(agentID); !ok {
		respondError(w, http.StatusBadRequest, "Неизвестная персона")
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	turns := h.historyService.LoadRecent(r.Context(), userID, agentID, limit)
	if turns == nil {
		turns = []session.Turn{}
	}
	respondJSON(w, http.StatusOK, HistoryResponse{Messages: turns})
}

type SaveHistoryRequest struct {
	Messages []session.Turn `json:"messages"`
	AgentID  string         `json:"agentId"`
}

// SaveHistoryHandler — best-effort запись: клиент всегда получает
// success, неудача записи остаётся в логах.
func (h *Handler) SaveHistoryHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "Метод не разрешен")
		return
	}

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Пользователь не найден в токене")
		return
	}

	var req SaveHistoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Некорректное тело запроса")
		return
	}
	if _, ok := agents.Get(req.AgentID); !ok {
		respondError(w, http.StatusBadRequest, "Неизвестная персона")
		return
	}

	h.historyService.Save(r.Context(), userID, req.AgentID, req.Messages)
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type SessionRequest struct {
	AgentID string `json:"agentId"`
}

// SessionTurnsHandler отдаёт текущее состояние активной сессии вместе с
// приветствием и состояниями доставки.
func (h *Handler) SessionTurnsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "Метод не разрешен")
		return
	}

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Пользователь не найден в токене")
		return
	}

	sess, err := h.sessions.Open(r.Context(), userID, r.URL.Query().Get("agentId"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, HistoryResponse{Messages: sess.Store.Turns()})
}

// ClearSessionHandler сбрасывает активную сессию до приветствия. Хранилище
// истории не трогается.
func (h *Handler) ClearSessionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "Метод не разрешен")
		return
	}

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Пользователь не найден в токене")
		return
	}

	var req SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Некорректное тело запроса")
		return
	}

	h.sessions.Clear(userID, req.AgentID)
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// CloseSessionHandler выбрасывает сессию из памяти и гасит таймеры
// доставки.
func (h *Handler) CloseSessionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "Метод не разрешен")
		return
	}

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Пользователь не найден в токене")
		return
	}

	var req SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Некорректное тело запроса")
		return
	}

	h.sessions.Close(userID, req.AgentID)
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type TranscribeResponse struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

func (h *Handler) TranscribeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "Метод не разрешен")
		return
	}

	if err := r.ParseMultipartForm(maxAudioUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "Некорректная multipart-форма")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Аудиофайл отсутствует")
		return
	}
	defer file.Close()

	audioData, err := io.ReadAll(io.LimitReader(file, maxAudioUploadSize))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Не удалось прочитать аудиофайл")
		return
	}

	text, language, err := h.voiceService.Transcribe(r.Context(), audioData, header.Filename)
	if err != nil {
		logrus.Errorf("Ошибка транскрибации: %v", err)
		respondError(w, http.StatusInternalServerError, "Транскрибация не удалась")
		return
	}

	respondJSON(w, http.StatusOK, TranscribeResponse{Text: text, Language: language})
}

type SynthesizeRequest struct {
	Text     string `json:"text"`
	VoiceID  string `json:"voiceId,omitempty"`
	AgentID  string `json:"agentId,omitempty"`
	Language string `json:"language,omitempty"`
}

type SynthesizeResponse struct {
	VoiceURL string `json:"voiceUrl"`
	Language string `json:"language,omitempty"`
}

func (h *Handler) SynthesizeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "Метод не разрешен")
		return
	}

	var req SynthesizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Некорректное тело запроса")
		return
	}
	if req.Text == "" {
		respondError(w, http.StatusBadRequest, "Поле text обязательно")
		return
	}

	voiceID := req.VoiceID
	if voiceID == "" {
		voiceID = agents.GetOrDefault(req.AgentID).VoiceID
	}

	voiceURL, err := h.voiceService.Synthesize(r.Context(), req.Text, voiceID)
	if err != nil {
		logrus.Errorf("Ошибка синтеза речи: %v", err)
		respondError(w, http.StatusInternalServerError, "Синтез речи не удался")
		return
	}

	respondJSON(w, http.StatusOK, SynthesizeResponse{VoiceURL: voiceURL, Language: req.Language})
}

type UpgradePlanRequest struct {
	Plan string `json:"plan"`
}

// UpgradePlanHandler переводит аккаунт на другой тариф. Сюда попадает
// результат оплаты; сами платежи обрабатывает внешний провайдер.
func (h *Handler) UpgradePlanHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "Метод не разрешен")
		return
	}

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Пользователь не найден в токене")
		return
	}

	var req UpgradePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Некорректное тело запроса")
		return
	}

	if err := h.userService.SetPlan(r.Context(), userID, req.Plan); err != nil {
		if errors.Is(err, users.ErrUnknownPlan) {
			respondError(w, http.StatusBadRequest, "Неизвестный тариф")
			return
		}
		logrus.Errorf("Ошибка смены тарифа пользователя %d: %v", userID, err)
		respondError(w, http.StatusInternalServerError, "Не удалось сменить тариф")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "plan": req.Plan})
}

func (h *Handler) adminCaller(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Пользователь не найден в токене")
		return 0, false
	}
	return userID, true
}

func respondAdminError(w http.ResponseWriter, err error) {
	if errors.Is(err, admin.ErrAccessDenied) {
		respondError(w, http.StatusForbidden, "Требуются права администратора")
		return
	}
	logrus.Errorf("Ошибка админ-операции: %v", err)
	respondError(w, http.StatusInternalServerError, "Внутренняя ошибка сервера")
}

func (h *Handler) AdminUsersHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "Метод не разрешен")
		return
	}

	userID, ok := h.adminCaller(w, r)
	if !ok {
		return
	}

	accounts, err := h.adminService.Users(r.Context(), userID)
	if err != nil {
		respondAdminError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string][]users.Account{"users": accounts})
}

func (h *Handler) AdminStatsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "Метод не разрешен")
		return
	}

	userID, ok := h.adminCaller(w, r)
	if !ok {
		return
	}

	stats, err := h.adminService.ChatStats(r.Context(), userID)
	if err != nil {
		respondAdminError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]map[string]int{"chat_stats": stats})
}

type AdminResetQuotaRequest struct {
	UserID int64 `json:"user_id"`
}

func (h *Handler) AdminResetQuotaHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "Метод не разрешен")
		return
	}

	userID, ok := h.adminCaller(w, r)
	if !ok {
		return
	}

	var req AdminResetQuotaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == 0 {
		respondError(w, http.StatusBadRequest, "Поле user_id обязательно")
		return
	}

	if err := h.adminService.ResetConversations(r.Context(), userID, req.UserID); err != nil {
		respondAdminError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) ListAgentsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "Метод не разрешен")
		return
	}
	respondJSON(w, http.StatusOK, map[string][]agents.Agent{"agents": agents.List()})
}

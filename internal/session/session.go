package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"agenthub/internal/agents"

	"github.com/sirupsen/logrus"
)

// Session — активный диалог одного пользователя с одной персоной.
// Живёт в памяти; источником истины для текущего разговора является его
// Store, хранилище истории только догоняет его best-effort.
type Session struct {
	UserID  int64
	AgentID string
	Store   *Store

	tracker *DeliveryTracker

	mu        sync.Mutex
	inFlight  bool
	sentCount int
	nudged    bool
	closed    bool
}

// BeginSend захватывает право на отправку. Пока отправка не завершена,
// вторая параллельная не допускается.
func (s *Session) BeginSend() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight || s.closed {
		return false
	}
	s.inFlight = true
	return true
}

func (s *Session) EndSend() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
}

// CountSend увеличивает локальный счётчик отправок сессии и возвращает
// новое значение. Счётчик независим от месячного лимита в базе.
func (s *Session) CountSend() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sentCount++
	return s.sentCount
}

// MarkNudged отмечает, что мягкое предложение апгрейда уже показано.
// Возвращает false, если оно было показано раньше.
func (s *Session) MarkNudged() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nudged {
		return false
	}
	s.nudged = true
	return true
}

// Close останавливает таймеры доставки. Store после закрытия больше не
// мутируется.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.tracker.Stop()
}

// HistoryStore — долговременное хранилище реплик с ключом
// (пользователь, персона). Чтение и запись снисходительные: ошибки
// логируются внутри и наружу не выходят.
type HistoryStore interface {
	Load(ctx context.Context, userID int64, agentID string) []Turn
	Save(ctx context.Context, userID int64, agentID string, turns []Turn)
}

// Manager держит активные сессии по ключу (пользователь, персона).
type Manager struct {
	history        HistoryStore
	sentDelay      time.Duration
	deliveredDelay time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(history HistoryStore) *Manager {
	return &Manager{
		history:        history,
		sentDelay:      DefaultSentDelay,
		deliveredDelay: DefaultDeliveredDelay,
		sessions:       make(map[string]*Session),
	}
}

func sessionKey(userID int64, agentID string) string {
	return fmt.Sprintf("%d:%s", userID, agentID)
}

// Open возвращает активную сессию, создавая и наполняя её из истории при
// первом обращении. Сессии разных персон никогда не делят реплики: ключ
// включает agentID.
func (m *Manager) Open(ctx context.Context, userID int64, agentID string) (*Session, error) {
	agent, ok := agents.Get(agentID)
	if !ok {
		return nil, fmt.Errorf("неизвестная персона: %s", agentID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := sessionKey(userID, agentID)
	if sess, ok := m.sessions[key]; ok {
		return sess, nil
	}

	store := NewStore(NewWelcomeTurn(agent.WelcomeText()))
	for _, t := range m.history.Load(ctx, userID, agentID) {
		store.Append(t)
	}

	sess := &Session{
		UserID:  userID,
		AgentID: agentID,
		Store:   store,
	}
	sess.tracker = NewDeliveryTracker(store, m.sentDelay, m.deliveredDelay)
	m.sessions[key] = sess

	logrus.Debugf("Открыта сессия пользователя %d с персоной %s (%d реплик из истории)",
		userID, agentID, store.Len()-1)
	return sess, nil
}

// Close выбрасывает сессию из памяти и гасит её таймеры. Сохранённая
// история при этом не трогается.
func (m *Manager) Close(userID int64, agentID string) {
	m.mu.Lock()
	sess, ok := m.sessions[sessionKey(userID, agentID)]
	if ok {
		delete(m.sessions, sessionKey(userID, agentID))
	}
	m.mu.Unlock()
	if ok {
		sess.Close()
	}
}

// Clear сбрасывает активную сессию до одного приветствия.
func (m *Manager) Clear(userID int64, agentID string) {
	m.mu.Lock()
	sess, ok := m.sessions[sessionKey(userID, agentID)]
	m.mu.Unlock()
	if !ok {
		return
	}
	agent := agents.GetOrDefault(agentID)
	sess.Store.Reset(NewWelcomeTurn(agent.WelcomeText()))
}

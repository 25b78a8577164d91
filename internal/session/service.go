package session

import (
	"context"
	"errors"
	"fmt"

	"agenthub/internal/quota"

	"github.com/sirupsen/logrus"
)

var (
	ErrQuotaExceeded = errors.New("достигнут месячный лимит диалогов")
	ErrSendInFlight  = errors.New("предыдущая отправка ещё не завершена")
)

// Порог мягкого предложения апгрейда: ровно столько сообщений, один раз.
const upgradeNudgeAt = 100

// QuotaGate атомарно резервирует одну отправку в месячном счётчике.
type QuotaGate interface {
	CheckAndReserve(ctx context.Context, userID int64) (*quota.Status, error)
}

// Completer возвращает ответ модели на историю диалога, завершающуюся
// свежей пользовательской репликой.
type Completer interface {
	Reply(ctx context.Context, agentID string, history []HistoryItem, attachments []Attachment) (string, error)
}

type Service struct {
	gate      QuotaGate
	completer Completer
	history   HistoryStore
}

func NewService(gate QuotaGate, completer Completer, history HistoryStore) *Service {
	return &Service{
		gate:      gate,
		completer: completer,
		history:   history,
	}
}

// SendResult — итог одной успешной отправки.
type SendResult struct {
	UserTurn  Turn
	Reply     Turn
	Quota     *quota.Status
	ShowNudge bool
}

// Send проводит одну пользовательскую реплику по всему пути: квота,
// оптимистичное добавление, запрос к модели, ответ, best-effort
// сохранение. При отказе модели реплика пользователя полностью
// откатывается — Store возвращается к состоянию до отправки.
func (s *Service) Send(ctx context.Context, sess *Session, text string, attachment *Attachment) (*SendResult, error) {
	if !sess.BeginSend() {
		return nil, ErrSendInFlight
	}
	defer sess.EndSend()

	st, err := s.gate.CheckAndReserve(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("не удалось проверить лимит диалогов: %w", err)
	}
	if !st.Allowed {
		return &SendResult{Quota: st}, ErrQuotaExceeded
	}

	userTurn := NewUserTurn(text, attachment)
	sess.Store.Append(userTurn)
	sess.tracker.Track(userTurn.ID)

	replyText, err := s.completer.Reply(ctx, sess.AgentID, sess.Store.History(), attachmentsOf(userTurn))
	if err != nil {
		sess.Store.Remove(userTurn.ID)
		logrus.Errorf("Отправка пользователя %d персоне %s не удалась: %v", sess.UserID, sess.AgentID, err)
		return nil, fmt.Errorf("не удалось получить ответ модели: %w", err)
	}

	// Сначала ответ, затем перевод в read: наблюдатель сессии не должен
	// увидеть прочитанную реплику без парного ответа ассистента.
	reply := NewAssistantTurn(replyText)
	sess.Store.Append(reply)
	sess.Store.Advance(userTurn.ID, DeliveryRead)

	userTurn.Delivery = DeliveryRead
	s.history.Save(ctx, sess.UserID, sess.AgentID, []Turn{userTurn, reply})

	result := &SendResult{
		UserTurn: userTurn,
		Reply:    reply,
		Quota:    st,
	}

	// Два независимых триггера апгрейда: жёсткий лимит выше, а здесь —
	// разовое напоминание на ровно сотом сообщении бесплатного тарифа.
	if st.Plan == quota.PlanFree {
		n := sess.CountSend()
		if (n == upgradeNudgeAt || st.ConversationsUsed == upgradeNudgeAt) && sess.MarkNudged() {
			result.ShowNudge = true
		}
	} else {
		sess.CountSend()
	}

	return result, nil
}

func attachmentsOf(t Turn) []Attachment {
	if t.Attachment == nil {
		return nil
	}
	return []Attachment{*t.Attachment}
}

package history

import (
	"context"

	"agenthub/internal/session"

	"github.com/sirupsen/logrus"
)

const defaultLoadLimit = 50

// Store — нижний слой хранения реплик.
type Store interface {
	LoadTurns(ctx context.Context, userID int64, agentID string, limit int) ([]session.Turn, error)
	SaveTurns(ctx context.Context, userID int64, agentID string, turns []session.Turn) error
}

// Service реализует снисходительную политику работы с историей: история —
// удобство, а не условие корректности, поэтому любая ошибка хранилища
// логируется и гасится. Источником истины живой сессии остаётся её Store.
type Service struct {
	repo Store
}

func NewService(repo Store) *Service {
	return &Service{repo: repo}
}

// Load возвращает сохранённые реплики; при ошибке — пустую историю.
func (s *Service) Load(ctx context.Context, userID int64, agentID string) []session.Turn {
	return s.LoadRecent(ctx, userID, agentID, defaultLoadLimit)
}

// LoadRecent — то же с явным ограничением количества.
func (s *Service) LoadRecent(ctx context.Context, userID int64, agentID string, limit int) []session.Turn {
	turns, err := s.repo.LoadTurns(ctx, userID, agentID, limit)
	if err != nil {
		logrus.Warnf("История диалога (%d, %s) недоступна, начинаем с чистого листа: %v", userID, agentID, err)
		return nil
	}
	logrus.Debugf("Загружено %d реплик истории для (%d, %s)", len(turns), userID, agentID)
	return turns
}

// Save сохраняет реплики best-effort: без повторов, без ошибок наружу.
// Приветственная реплика в хранилище не попадает.
func (s *Service) Save(ctx context.Context, userID int64, agentID string, turns []session.Turn) {
	persistable := make([]session.Turn, 0, len(turns))
	for _, t := range turns {
		if t.IsWelcome() {
			continue
		}
		persistable = append(persistable, t)
	}
	if len(persistable) == 0 {
		return
	}

	if err := s.repo.SaveTurns(ctx, userID, agentID, persistable); err != nil {
		logrus.Warnf("Не удалось сохранить историю диалога (%d, %s): %v", userID, agentID, err)
	}
}

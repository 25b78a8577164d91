package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agenthub/internal/users"

	"github.com/sirupsen/logrus"
)

var ErrAccessDenied = errors.New("требуются права администратора")

// Окно статистики сообщений админ-панели.
const statsWindow = 30 * 24 * time.Hour

// AccountSource отдаёт аккаунты для проверки прав и списка пользователей.
type AccountSource interface {
	GetByID(ctx context.Context, id int64) (*users.Account, error)
	List(ctx context.Context) ([]users.Account, error)
}

// UsageResetter обнуляет месячный счётчик диалогов пользователя.
type UsageResetter interface {
	ResetUsage(ctx context.Context, userID int64) error
}

// StatsSource отдаёт число сохранённых реплик по дням.
type StatsSource interface {
	MessageCountsByDay(ctx context.Context, since time.Time) (map[string]int, error)
}

// Service — операции админ-панели. Каждая начинается с проверки
// is_admin у вызывающего аккаунта.
type Service struct {
	accounts AccountSource
	usage    UsageResetter
	stats    StatsSource
}

func NewService(accounts AccountSource, usage UsageResetter, stats StatsSource) *Service {
	return &Service{
		accounts: accounts,
		usage:    usage,
		stats:    stats,
	}
}

func (s *Service) requireAdmin(ctx context.Context, callerID int64) error {
	account, err := s.accounts.GetByID(ctx, callerID)
	if err != nil {
		return err
	}
	if !account.IsAdmin {
		return ErrAccessDenied
	}
	return nil
}

// Users возвращает все аккаунты, свежие первыми.
func (s *Service) Users(ctx context.Context, callerID int64) ([]users.Account, error) {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return nil, err
	}
	return s.accounts.List(ctx)
}

// ChatStats возвращает число сохранённых реплик по дням за последние
// 30 дней, ключ — день в формате ГГГГ-ММ-ДД.
func (s *Service) ChatStats(ctx context.Context, callerID int64) (map[string]int, error) {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return nil, err
	}

	stats, err := s.stats.MessageCountsByDay(ctx, time.Now().Add(-statsWindow))
	if err != nil {
		logrus.Errorf("Ошибка при получении статистики сообщений: %v", err)
		return nil, fmt.Errorf("не удалось получить статистику сообщений")
	}
	return stats, nil
}

// ResetConversations обнуляет месячный счётчик диалогов пользователя.
func (s *Service) ResetConversations(ctx context.Context, callerID, targetID int64) error {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return err
	}

	if err := s.usage.ResetUsage(ctx, targetID); err != nil {
		logrus.Errorf("Ошибка при сбросе счётчика диалогов пользователя %d: %v", targetID, err)
		return fmt.Errorf("не удалось сбросить счётчик диалогов")
	}
	logrus.Infof("Администратор %d сбросил счётчик диалогов пользователя %d", callerID, targetID)
	return nil
}

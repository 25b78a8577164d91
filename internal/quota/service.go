package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	PlanFree    = "free"
	PlanPremium = "premium"

	// Потолок бесплатного тарифа: столько диалогов в месяц.
	FreeMonthlyLimit = 100
)

// Status — ответ шлюза квоты. ConversationsUsed после успешного
// резервирования уже включает зарезервированную отправку.
type Status struct {
	Allowed           bool
	ConversationsUsed int
	Limit             *int
	Plan              string
	ResetsAt          time.Time
}

// Store — счётчик в базе. Счётчиком владеет база, сервис держит только
// прочитанные значения.
type Store interface {
	Reserve(ctx context.Context, userID int64, limit *int) (used int, resetsAt time.Time, allowed bool, err error)
	Peek(ctx context.Context, userID int64) (int, time.Time, error)
}

// PlanSource отдаёт тариф пользователя.
type PlanSource interface {
	GetPlan(ctx context.Context, userID int64) (string, error)
}

type Service struct {
	store Store
	plans PlanSource
}

func NewService(store Store, plans PlanSource) *Service {
	return &Service{store: store, plans: plans}
}

func planLimit(plan string) *int {
	if plan == PlanFree {
		limit := FreeMonthlyLimit
		return &limit
	}
	return nil
}

// CheckAndReserve — атомарная проверка-с-инкрементом перед отправкой.
// Если Allowed == false, вызывающий не идёт к модели и показывает
// блокирующее предложение апгрейда.
func (s *Service) CheckAndReserve(ctx context.Context, userID int64) (*Status, error) {
	plan, err := s.plans.GetPlan(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("не удалось получить тариф пользователя %d: %w", userID, err)
	}

	limit := planLimit(plan)
	used, resetsAt, allowed, err := s.store.Reserve(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	if !allowed {
		logrus.Infof("Пользователь %d упёрся в лимит диалогов (%d, тариф %s)", userID, used, plan)
	}

	return &Status{
		Allowed:           allowed,
		ConversationsUsed: used,
		Limit:             limit,
		Plan:              plan,
		ResetsAt:          resetsAt,
	}, nil
}

// Check — чтение без резервирования: клиент решает, показывать ли
// блокирующее окно ещё до попытки отправки.
func (s *Service) Check(ctx context.Context, userID int64) (*Status, error) {
	plan, err := s.plans.GetPlan(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("не удалось получить тариф пользователя %d: %w", userID, err)
	}

	used, resetsAt, err := s.store.Peek(ctx, userID)
	if err != nil {
		return nil, err
	}

	limit := planLimit(plan)
	allowed := limit == nil || used < *limit

	return &Status{
		Allowed:           allowed,
		ConversationsUsed: used,
		Limit:             limit,
		Plan:              plan,
		ResetsAt:          resetsAt,
	}, nil
}

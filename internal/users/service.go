package users

import (
	"context"
	"errors"
	"fmt"

	"agenthub/internal/auth"
	"agenthub/internal/quota"

	"github.com/sirupsen/logrus"
)

var (
	ErrUserNotFound       = errors.New("пользователь не найден")
	ErrUserAlreadyExists  = errors.New("пользователь с таким логином уже существует")
	ErrInvalidCredentials = errors.New("неверный логин или пароль")
	ErrUnknownPlan        = errors.New("неизвестный тариф")
)

// Store — нижний слой хранения аккаунтов.
type Store interface {
	CreateAccount(ctx context.Context, login, passwordHash string, email *string, plan string) (*Account, error)
	GetAccountByLogin(ctx context.Context, login string) (*Account, error)
	GetAccountByID(ctx context.Context, id int64) (*Account, error)
	ListAccounts(ctx context.Context) ([]Account, error)
	UpdatePlan(ctx context.Context, id int64, plan string) error
}

type Service struct {
	repo Store
}

func NewService(repo Store) *Service {
	return &Service{repo: repo}
}

// Register создаёт аккаунт на бесплатном тарифе. Гонка двух регистраций
// одного логина решается уникальным индексом в базе, а не предварительной
// проверкой.
func (s *Service) Register(ctx context.Context, login, password string, email *string) (*Account, error) {
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		logrus.Errorf("Ошибка хеширования пароля для пользователя '%s': %v", login, err)
		return nil, fmt.Errorf("внутренняя ошибка сервера при хешировании пароля")
	}

	account, err := s.repo.CreateAccount(ctx, login, hashedPassword, email, quota.PlanFree)
	if err != nil {
		if errors.Is(err, ErrUserAlreadyExists) {
			return nil, ErrUserAlreadyExists
		}
		logrus.Errorf("Ошибка создания аккаунта '%s': %v", login, err)
		return nil, fmt.Errorf("внутренняя ошибка сервера при создании аккаунта")
	}
	return account, nil
}

func (s *Service) Authenticate(ctx context.Context, login, password string) (*Account, error) {
	account, err := s.repo.GetAccountByLogin(ctx, login)
	if err != nil {
		logrus.Errorf("Ошибка при получении аккаунта '%s' для аутентификации: %v", login, err)
		return nil, fmt.Errorf("внутренняя ошибка сервера при аутентификации")
	}
	if account == nil {
		return nil, ErrInvalidCredentials
	}

	if !auth.CheckPasswordHash(password, account.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return account, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Account, error) {
	account, err := s.repo.GetAccountByID(ctx, id)
	if err != nil {
		logrus.Errorf("Ошибка при получении аккаунта по ID %d: %v", id, err)
		return nil, fmt.Errorf("внутренняя ошибка сервера")
	}
	if account == nil {
		return nil, ErrUserNotFound
	}
	return account, nil
}

// List отдаёт все аккаунты для админ-панели, свежие первыми.
func (s *Service) List(ctx context.Context) ([]Account, error) {
	accounts, err := s.repo.ListAccounts(ctx)
	if err != nil {
		logrus.Errorf("Ошибка при получении списка аккаунтов: %v", err)
		return nil, fmt.Errorf("внутренняя ошибка сервера")
	}
	return accounts, nil
}

// GetPlan отдаёт тариф пользователя для шлюза квоты.
func (s *Service) GetPlan(ctx context.Context, id int64) (string, error) {
	account, err := s.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return account.Plan, nil
}

// SetPlan — граница интеграции с платёжным провайдером: сюда попадает
// результат оплаты, сами платежи этот сервис не обрабатывает.
func (s *Service) SetPlan(ctx context.Context, id int64, plan string) error {
	if plan != quota.PlanFree && plan != quota.PlanPremium {
		return ErrUnknownPlan
	}
	if err := s.repo.UpdatePlan(ctx, id, plan); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		logrus.Errorf("Ошибка при смене тарифа пользователя %d: %v", id, err)
		return fmt.Errorf("внутренняя ошибка сервера при смене тарифа")
	}
	logrus.Infof("Пользователь %d переведён на тариф %s", id, plan)
	return nil
}

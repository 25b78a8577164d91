package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateAccount(ctx context.Context, login, passwordHash string, email *string, plan string) (*Account, error) {
	query := `
		INSERT INTO accounts (login, password_hash, email, plan)
		VALUES ($1, $2, $3, $4)
		RETURNING id, login, email, password_hash, plan, is_admin, created_at, updated_at
	`

	var account Account
	err := r.db.GetContext(ctx, &account, query, login, passwordHash, email, plan)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("ошибка при создании аккаунта: %w", err)
	}
	return &account, nil
}

func (r *Repository) GetAccountByLogin(ctx context.Context, login string) (*Account, error) {
	query := `
		SELECT id, login, email, password_hash, plan, is_admin, created_at, updated_at
		FROM accounts
		WHERE login = $1
	`
	var account Account
	err := r.db.GetContext(ctx, &account, query, login)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка при получении аккаунта по логину: %w", err)
	}
	return &account, nil
}

func (r *Repository) GetAccountByID(ctx context.Context, id int64) (*Account, error) {
	query := `
		SELECT id, login, email, password_hash, plan, is_admin, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`
	var account Account
	err := r.db.GetContext(ctx, &account, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка при получении аккаунта по ID: %w", err)
	}
	return &account, nil
}

// ListAccounts возвращает все аккаунты, свежие первыми.
func (r *Repository) ListAccounts(ctx context.Context) ([]Account, error) {
	query := `
		SELECT id, login, email, password_hash, plan, is_admin, created_at, updated_at
		FROM accounts
		ORDER BY created_at DESC
	`
	var accounts []Account
	if err := r.db.SelectContext(ctx, &accounts, query); err != nil {
		return nil, fmt.Errorf("ошибка при получении списка аккаунтов: %w", err)
	}
	return accounts, nil
}

func (r *Repository) UpdatePlan(ctx context.Context, id int64, plan string) error {
	query := `
		UPDATE accounts
		SET plan = $2, updated_at = NOW()
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id, plan)
	if err != nil {
		return fmt.Errorf("ошибка при обновлении тарифа: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

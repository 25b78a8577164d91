package quota

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

type usageRow struct {
	ConversationsUsed int       `db:"conversations_used"`
	ResetsAt          time.Time `db:"resets_at"`
}

// Reserve атомарно резервирует одну отправку в счётчике текущего месяца.
// Проверка и инкремент — один оператор: два одновременных вызова (две
// вкладки, два устройства) не могут оба пройти на границе лимита.
// limit == nil означает безлимитный тариф.
func (r *Repository) Reserve(ctx context.Context, userID int64, limit *int) (used int, resetsAt time.Time, allowed bool, err error) {
	query := `
		INSERT INTO conversation_usage (user_id, period_start, conversations_used)
		VALUES ($1, date_trunc('month', NOW()), 1)
		ON CONFLICT (user_id, period_start) DO UPDATE
		SET conversations_used = conversation_usage.conversations_used + 1
		WHERE $2::int IS NULL OR conversation_usage.conversations_used < $2
		RETURNING conversations_used, period_start + INTERVAL '1 month' AS resets_at
	`

	var row usageRow
	err = r.db.GetContext(ctx, &row, query, userID, limit)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Условие WHERE не прошло: лимит исчерпан, счётчик не изменён.
			used, resetsAt, err = r.Peek(ctx, userID)
			if err != nil {
				return 0, time.Time{}, false, err
			}
			return used, resetsAt, false, nil
		}
		return 0, time.Time{}, false, fmt.Errorf("не удалось зарезервировать отправку: %w", err)
	}

	return row.ConversationsUsed, row.ResetsAt, true, nil
}

// Peek возвращает текущее значение месячного счётчика без инкремента.
func (r *Repository) Peek(ctx context.Context, userID int64) (int, time.Time, error) {
	query := `
		SELECT conversations_used, period_start + INTERVAL '1 month' AS resets_at
		FROM conversation_usage
		WHERE user_id = $1 AND period_start = date_trunc('month', NOW())
	`

	var row usageRow
	err := r.db.GetContext(ctx, &row, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, startOfNextMonth(time.Now()), nil
		}
		return 0, time.Time{}, fmt.Errorf("не удалось получить счётчик диалогов: %w", err)
	}
	return row.ConversationsUsed, row.ResetsAt, nil
}

// ResetUsage обнуляет счётчик текущего месяца. Отсутствие строки — тоже
// ноль, поэтому ненайденный пользователь ошибкой не является.
func (r *Repository) ResetUsage(ctx context.Context, userID int64) error {
	query := `
		UPDATE conversation_usage
		SET conversations_used = 0
		WHERE user_id = $1 AND period_start = date_trunc('month', NOW())
	`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("не удалось сбросить счётчик диалогов: %w", err)
	}
	return nil
}

func startOfNextMonth(now time.Time) time.Time {
	y, m, _ := now.UTC().Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
}

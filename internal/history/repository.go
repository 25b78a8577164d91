package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"agenthub/internal/session"

	"github.com/jmoiron/sqlx"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

type turnRow struct {
	TurnID     string    `db:"turn_id"`
	Role       string    `db:"role"`
	Content    string    `db:"content"`
	Delivery   string    `db:"delivery"`
	Attachment []byte    `db:"attachment"`
	CreatedAt  time.Time `db:"created_at"`
}

// LoadTurns возвращает сохранённые реплики диалога (пользователь, персона)
// в хронологическом порядке, самые старые первыми.
func (r *Repository) LoadTurns(ctx context.Context, userID int64, agentID string, limit int) ([]session.Turn, error) {
	query := `
		SELECT turn_id, role, content, delivery, attachment, created_at
		FROM chat_history
		WHERE user_id = $1 AND agent_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`

	var rows []turnRow
	if err := r.db.SelectContext(ctx, &rows, query, userID, agentID, limit); err != nil {
		return nil, fmt.Errorf("не удалось получить историю диалога: %w", err)
	}

	// Выбирали свежие с конца, отдаём в хронологическом порядке.
	turns := make([]session.Turn, len(rows))
	for i, row := range rows {
		t := session.Turn{
			ID:        row.TurnID,
			Role:      session.Role(row.Role),
			Content:   row.Content,
			Delivery:  session.DeliveryState(row.Delivery),
			CreatedAt: row.CreatedAt,
		}
		if len(row.Attachment) > 0 {
			var att session.Attachment
			if err := json.Unmarshal(row.Attachment, &att); err == nil {
				t.Attachment = &att
			}
		}
		turns[len(rows)-1-i] = t
	}
	return turns, nil
}

type dayCountRow struct {
	Day   time.Time `db:"day"`
	Count int       `db:"count"`
}

// MessageCountsByDay возвращает число сохранённых реплик по дням начиная
// с указанной даты, ключ — день в формате ГГГГ-ММ-ДД.
func (r *Repository) MessageCountsByDay(ctx context.Context, since time.Time) (map[string]int, error) {
	query := `
		SELECT created_at::date AS day, COUNT(*) AS count
		FROM chat_history
		WHERE created_at >= $1
		GROUP BY day
		ORDER BY day
	`

	var rows []dayCountRow
	if err := r.db.SelectContext(ctx, &rows, query, since); err != nil {
		return nil, fmt.Errorf("не удалось получить статистику сообщений: %w", err)
	}

	stats := make(map[string]int, len(rows))
	for _, row := range rows {
		stats[row.Day.Format("2006-01-02")] = row.Count
	}
	return stats, nil
}

// SaveTurns дописывает реплики завершённого обмена. Одна транзакция на
// обмен: либо сохранились обе реплики, либо ни одной.
func (r *Repository) SaveTurns(ctx context.Context, userID int64, agentID string, turns []session.Turn) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("не удалось начать транзакцию: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO chat_history (user_id, agent_id, turn_id, role, content, delivery, attachment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	for _, t := range turns {
		var attachment []byte
		if t.Attachment != nil {
			attachment, err = json.Marshal(t.Attachment)
			if err != nil {
				return fmt.Errorf("не удалось сериализовать вложение: %w", err)
			}
		}
		if _, err := tx.ExecContext(ctx, query,
			userID, agentID, t.ID, string(t.Role), t.Content, string(t.Delivery), attachment, t.CreatedAt,
		); err != nil {
			return fmt.Errorf("не удалось сохранить реплику: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("не удалось зафиксировать историю: %w", err)
	}
	return nil
}

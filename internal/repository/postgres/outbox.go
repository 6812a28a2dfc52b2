package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sparkserve/bookingapi/internal/domain"
)

type outboxRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewOutboxRepository creates a new outbox repository
func NewOutboxRepository(db *sql.DB, logger *zap.Logger) *outboxRepository {
	return &outboxRepository{
		db:     db,
		logger: logger,
	}
}

func (r *outboxRepository) Enqueue(ctx context.Context, topic string, payload []byte) error {
	query := `
		INSERT INTO outbox_messages (id, topic, payload, attempts, next_attempt_at, status, created_at, updated_at)
		VALUES ($1, $2, $3, 0, $4, 'pending', $4, $4)
	`

	_, err := r.db.ExecContext(ctx, query, uuid.New(), topic, payload, time.Now())
	if err != nil {
		r.logger.Error("Failed to enqueue outbox message", zap.Error(err))
		return err
	}

	return nil
}

func (r *outboxRepository) FetchDue(ctx context.Context, now time.Time, limit int) ([]domain.OutboxMessage, error) {
	query := `
		SELECT id, topic, payload, attempts, next_attempt_at, status, created_at, updated_at
		FROM outbox_messages
		WHERE status = 'pending' AND next_attempt_at <= $1
		ORDER BY next_attempt_at
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, now, limit)
	if err != nil {
		r.logger.Error("Failed to fetch due outbox messages", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var messages []domain.OutboxMessage
	for rows.Next() {
		var msg domain.OutboxMessage
		err := rows.Scan(
			&msg.ID,
			&msg.Topic,
			&msg.Payload,
			&msg.Attempts,
			&msg.NextAttemptAt,
			&msg.Status,
			&msg.CreatedAt,
			&msg.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

func (r *outboxRepository) MarkDelivered(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE outbox_messages SET status = 'delivered', updated_at = $2 WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		r.logger.Error("Failed to mark outbox message delivered", zap.Error(err))
	}
	return err
}

func (r *outboxRepository) Reschedule(ctx context.Context, id uuid.UUID, attempts int, nextAttemptAt time.Time) error {
	query := `UPDATE outbox_messages SET attempts = $2, next_attempt_at = $3, updated_at = $4 WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, id, attempts, nextAttemptAt, time.Now())
	if err != nil {
		r.logger.Error("Failed to reschedule outbox message", zap.Error(err))
	}
	return err
}

func (r *outboxRepository) MarkFailed(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE outbox_messages SET status = 'failed', updated_at = $2 WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		r.logger.Error("Failed to mark outbox message failed", zap.Error(err))
	}
	return err
}

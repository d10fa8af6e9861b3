package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Event lifecycle values stored in outbox_events.status.
const (
	StatusPending = "pending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

// Record is one row of outbox_events.
type Record struct {
	ID            int64
	RoutingKey    string
	Payload       json.RawMessage
	TraceID       string
	Status        string
	Attempts      int
	NextAttemptAt *time.Time
	CreatedAt     time.Time
}

// Repository is the PostgreSQL outbox store.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Enqueue stores a pending event for the Dispatcher to deliver.
func (r *Repository) Enqueue(ctx context.Context, routingKey string, payload json.RawMessage, traceID string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO outbox_events (routing_key, payload, trace_id, status)
		VALUES ($1, $2, $3, '`+StatusPending+`')
	`, routingKey, payload, traceID)
	if err != nil {
		return fmt.Errorf("failed to enqueue outbox event: %w", err)
	}
	return nil
}

// Pending returns due pending events, oldest first.
func (r *Repository) Pending(ctx context.Context, limit int) ([]Record, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, routing_key, payload, trace_id, status, attempts, next_attempt_at, created_at
		FROM outbox_events
		WHERE status = '`+StatusPending+`'
		  AND (next_attempt_at IS NULL OR next_attempt_at <= NOW())
		ORDER BY created_at ASC, id ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending events: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(
			&rec.ID,
			&rec.RoutingKey,
			&rec.Payload,
			&rec.TraceID,
			&rec.Status,
			&rec.Attempts,
			&rec.NextAttemptAt,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *Repository) MarkSent(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE outbox_events SET status = '`+StatusSent+`', updated_at = NOW() WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to mark event as sent: %w", err)
	}
	return nil
}

// MarkFailed records a failed delivery. Below maxAttempts the event is retried
// after attempts*retryAfter; otherwise it is marked failed for good.
func (r *Repository) MarkFailed(ctx context.Context, id int64, maxAttempts int, retryAfter time.Duration) error {
	_, err := r.db.Exec(ctx, `
		UPDATE outbox_events
		SET attempts = attempts + 1,
		    status = CASE WHEN attempts + 1 >= $2 THEN '`+StatusFailed+`' ELSE '`+StatusPending+`' END,
		    next_attempt_at = CASE WHEN attempts + 1 >= $2 THEN NULL
		                           ELSE NOW() + (attempts + 1) * ($3::float8 * INTERVAL '1 second') END,
		    updated_at = NOW()
		WHERE id = $1
	`, id, maxAttempts, retryAfter.Seconds())
	if err != nil {
		return fmt.Errorf("failed to mark event as failed: %w", err)
	}
	return nil
}

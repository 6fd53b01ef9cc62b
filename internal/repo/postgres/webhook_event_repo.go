package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type WebhookEventRepo struct {
	pool *pgxpool.Pool
}

type WebhookEventRecord struct {
	EventID     string
	EventType   string
	ProcessedAt time.Time
}

func NewWebhookEventRepo(pool *pgxpool.Pool) *WebhookEventRepo {
	return &WebhookEventRepo{pool: pool}
}

// Claim records eventID inside tx. It returns false when the event is already
// recorded. A concurrent claim of the same id blocks on the primary key until
// the other transaction finishes.
func (r *WebhookEventRepo) Claim(ctx context.Context, tx pgx.Tx, eventID, eventType string, now time.Time) (bool, error) {
	if strings.TrimSpace(eventID) == "" {
		return false, fmt.Errorf("event id is required")
	}
	if tx == nil {
		return false, fmt.Errorf("transaction is required")
	}

	var claimed string
	err := tx.QueryRow(ctx, `
INSERT INTO webhook_events (
	event_id,
	event_type,
	processed_at
) VALUES ($1, $2, $3)
ON CONFLICT (event_id) DO NOTHING
RETURNING event_id
`, eventID, eventType, now.UTC()).Scan(&claimed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("claim webhook event: %w", err)
	}

	return claimed != "", nil
}

func (r *WebhookEventRepo) Get(ctx context.Context, eventID string) (WebhookEventRecord, error) {
	if r.pool == nil {
		return WebhookEventRecord{}, fmt.Errorf("postgres pool is nil")
	}

	var rec WebhookEventRecord
	err := r.pool.QueryRow(ctx, `
SELECT event_id, event_type, processed_at
FROM webhook_events
WHERE event_id = $1
`, eventID).Scan(&rec.EventID, &rec.EventType, &rec.ProcessedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return WebhookEventRecord{}, ErrWebhookEventNotFound
		}
		return WebhookEventRecord{}, fmt.Errorf("get webhook event: %w", err)
	}

	return rec, nil
}

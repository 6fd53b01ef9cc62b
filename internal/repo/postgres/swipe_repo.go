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

type SwipeRepo struct {
	pool *pgxpool.Pool
}

type SwipeRecord struct {
	ActorID  string
	TargetID string
	Action   string
	SwipedAt time.Time
}

func NewSwipeRepo(pool *pgxpool.Pool) *SwipeRepo {
	return &SwipeRepo{pool: pool}
}

// LockPair serialises concurrent swipes between the same two users until tx ends.
func (r *SwipeRepo) LockPair(ctx context.Context, tx pgx.Tx, userA, userB string) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}
	if userA > userB {
		userA, userB = userB, userA
	}

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, userA+":"+userB); err != nil {
		return fmt.Errorf("lock swipe pair: %w", err)
	}
	return nil
}

func (r *SwipeRepo) Upsert(ctx context.Context, tx pgx.Tx, actorID, targetID, action string, now time.Time) (SwipeRecord, error) {
	if strings.TrimSpace(actorID) == "" || strings.TrimSpace(targetID) == "" || action == "" {
		return SwipeRecord{}, fmt.Errorf("invalid swipe payload")
	}
	if tx == nil {
		return SwipeRecord{}, fmt.Errorf("transaction is required")
	}

	var rec SwipeRecord
	err := tx.QueryRow(ctx, `
INSERT INTO swipes (
	actor_id,
	target_id,
	action,
	swiped_at
) VALUES ($1, $2, $3, $4)
ON CONFLICT (actor_id, target_id) DO UPDATE
SET action = EXCLUDED.action,
	swiped_at = EXCLUDED.swiped_at
RETURNING actor_id, target_id, action, swiped_at
`, actorID, targetID, action, now.UTC()).Scan(
		&rec.ActorID,
		&rec.TargetID,
		&rec.Action,
		&rec.SwipedAt,
	)
	if err != nil {
		return SwipeRecord{}, fmt.Errorf("upsert swipe: %w", err)
	}

	return rec, nil
}

// HasLike reports whether actorID's latest action on targetID is LIKE.
func (r *SwipeRepo) HasLike(ctx context.Context, tx pgx.Tx, actorID, targetID string) (bool, error) {
	if tx == nil {
		return false, fmt.Errorf("transaction is required")
	}

	var one int
	err := tx.QueryRow(ctx, `
SELECT 1
FROM swipes
WHERE actor_id = $1 AND target_id = $2 AND action = 'LIKE'
LIMIT 1
`, actorID, targetID).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("lookup reciprocal like: %w", err)
	}

	return true, nil
}

func (r *SwipeRepo) Get(ctx context.Context, actorID, targetID string) (SwipeRecord, error) {
	if r.pool == nil {
		return SwipeRecord{}, fmt.Errorf("postgres pool is nil")
	}

	var rec SwipeRecord
	err := r.pool.QueryRow(ctx, `
SELECT actor_id, target_id, action, swiped_at
FROM swipes
WHERE actor_id = $1 AND target_id = $2
`, actorID, targetID).Scan(&rec.ActorID, &rec.TargetID, &rec.Action, &rec.SwipedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SwipeRecord{}, ErrSwipeNotFound
		}
		return SwipeRecord{}, fmt.Errorf("get swipe: %w", err)
	}

	return rec, nil
}

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

type UserRepo struct {
	pool *pgxpool.Pool
}

type BalanceRecord struct {
	UserID                string
	CreditsBalance        int
	SubscriptionTier      string
	SubscriptionExpiresAt *time.Time
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

// AddCredits atomically increments the balance, creating the billing row on first use.
func (r *UserRepo) AddCredits(ctx context.Context, tx pgx.Tx, userID string, credits int, now time.Time) (int, error) {
	if strings.TrimSpace(userID) == "" || credits <= 0 {
		return 0, fmt.Errorf("invalid credit grant payload")
	}
	if tx == nil {
		return 0, fmt.Errorf("transaction is required")
	}

	var balance int
	err := tx.QueryRow(ctx, `
INSERT INTO users (
	id,
	credits_balance,
	created_at,
	updated_at
) VALUES ($1, $2, $3, $3)
ON CONFLICT (id) DO UPDATE
SET credits_balance = users.credits_balance + EXCLUDED.credits_balance,
	updated_at = EXCLUDED.updated_at
RETURNING credits_balance
`, userID, credits, now.UTC()).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("add credits: %w", err)
	}

	return balance, nil
}

func (r *UserRepo) SetSubscription(ctx context.Context, tx pgx.Tx, userID, tier string, expiresAt *time.Time, subscriptionID string, now time.Time) error {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(tier) == "" {
		return fmt.Errorf("invalid subscription payload")
	}
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}

	var expires interface{}
	if expiresAt != nil {
		expires = expiresAt.UTC()
	}
	var subID interface{}
	if strings.TrimSpace(subscriptionID) != "" {
		subID = subscriptionID
	}

	_, err := tx.Exec(ctx, `
INSERT INTO users (
	id,
	subscription_tier,
	subscription_expires_at,
	stripe_subscription_id,
	created_at,
	updated_at
) VALUES ($1, $2, $3, $4, $5, $5)
ON CONFLICT (id) DO UPDATE
SET subscription_tier = EXCLUDED.subscription_tier,
	subscription_expires_at = EXCLUDED.subscription_expires_at,
	stripe_subscription_id = EXCLUDED.stripe_subscription_id,
	updated_at = EXCLUDED.updated_at
`, userID, tier, expires, subID, now.UTC())
	if err != nil {
		return fmt.Errorf("set subscription: %w", err)
	}

	return nil
}

func (r *UserRepo) GetBalance(ctx context.Context, userID string) (BalanceRecord, error) {
	if r.pool == nil {
		return BalanceRecord{}, fmt.Errorf("postgres pool is nil")
	}

	rec := BalanceRecord{UserID: userID}
	err := r.pool.QueryRow(ctx, `
SELECT credits_balance, subscription_tier, subscription_expires_at
FROM users
WHERE id = $1
`, userID).Scan(&rec.CreditsBalance, &rec.SubscriptionTier, &rec.SubscriptionExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return BalanceRecord{UserID: userID, SubscriptionTier: "free"}, nil
		}
		return BalanceRecord{}, fmt.Errorf("get balance: %w", err)
	}

	return rec, nil
}

// ExpireSubscriptions downgrades every lapsed paid subscription and returns how many changed.
func (r *UserRepo) ExpireSubscriptions(ctx context.Context, now time.Time) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	result, err := r.pool.Exec(ctx, `
UPDATE users
SET subscription_tier = 'free',
	subscription_expires_at = NULL,
	stripe_subscription_id = NULL,
	updated_at = $1
WHERE subscription_tier <> 'free'
	AND subscription_expires_at IS NOT NULL
	AND subscription_expires_at <= $1
`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("expire subscriptions: %w", err)
	}

	return result.RowsAffected(), nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TransactionRepo struct {
	pool *pgxpool.Pool
}

type TransactionRecord struct {
	ID             string
	UserID         string
	Type           string
	Amount         int64
	Currency       string
	CreditsGranted int
	Status         string
	ExternalRef    string
	CreatedAt      time.Time
}

func NewTransactionRepo(pool *pgxpool.Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// Append books rec once per external ref; a second booking returns ErrDuplicateExternalRef
// without aborting tx.
func (r *TransactionRepo) Append(ctx context.Context, tx pgx.Tx, rec TransactionRecord) (TransactionRecord, error) {
	if strings.TrimSpace(rec.UserID) == "" || strings.TrimSpace(rec.ExternalRef) == "" || rec.Type == "" {
		return TransactionRecord{}, fmt.Errorf("invalid transaction payload")
	}
	if tx == nil {
		return TransactionRecord{}, fmt.Errorf("transaction is required")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	var id string
	err := tx.QueryRow(ctx, `
INSERT INTO transactions (
	id,
	user_id,
	type,
	amount,
	currency,
	credits_granted,
	status,
	external_ref,
	created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (external_ref) DO NOTHING
RETURNING id
`, rec.ID, rec.UserID, rec.Type, rec.Amount, rec.Currency, rec.CreditsGranted, rec.Status, rec.ExternalRef, rec.CreatedAt.UTC()).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TransactionRecord{}, ErrDuplicateExternalRef
		}
		return TransactionRecord{}, fmt.Errorf("insert transaction: %w", err)
	}

	return rec, nil
}

func (r *TransactionRepo) ListForUser(ctx context.Context, userID string, limit int) ([]TransactionRecord, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("invalid user id")
	}
	if limit <= 0 {
		limit = 50
	}
	if r.pool == nil {
		return []TransactionRecord{}, nil
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, user_id, type, amount, currency, credits_granted, status, external_ref, created_at
FROM transactions
WHERE user_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2
`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	items := make([]TransactionRecord, 0, limit)
	for rows.Next() {
		var item TransactionRecord
		if err := rows.Scan(
			&item.ID,
			&item.UserID,
			&item.Type,
			&item.Amount,
			&item.Currency,
			&item.CreditsGranted,
			&item.Status,
			&item.ExternalRef,
			&item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		items = append(items, item)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate transactions: %w", rows.Err())
	}

	return items, nil
}

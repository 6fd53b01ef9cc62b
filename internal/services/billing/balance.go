package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lovevibesai/Love-Vibes-sub001/internal/domain/apperr"
	"github.com/lovevibesai/Love-Vibes-sub001/internal/domain/enums"
	"github.com/lovevibesai/Love-Vibes-sub001/internal/domain/model"
	pgrepo "github.com/lovevibesai/Love-Vibes-sub001/internal/repo/postgres"
)

func (s *Service) Balance(ctx context.Context, userID string) (model.Balance, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return model.Balance{}, fmt.Errorf("%w: user id is required", apperr.ErrInvalidInput)
	}
	if s.users == nil {
		return model.Balance{}, ErrNotConfigured
	}

	rec, err := s.users.GetBalance(ctx, userID)
	if err != nil {
		return model.Balance{}, fmt.Errorf("%w: get balance: %w", apperr.ErrUpstream, err)
	}

	tier := enums.SubscriptionTier(rec.SubscriptionTier)
	if tier == "" {
		tier = enums.SubscriptionTierFree
	}
	// The sweeper may lag behind expiry; report what the user actually has now.
	if rec.SubscriptionExpiresAt != nil && !rec.SubscriptionExpiresAt.After(s.now()) {
		tier = enums.SubscriptionTierFree
		rec.SubscriptionExpiresAt = nil
	}

	return model.Balance{
		UserID:                userID,
		CreditsBalance:        rec.CreditsBalance,
		SubscriptionTier:      tier,
		SubscriptionExpiresAt: rec.SubscriptionExpiresAt,
	}, nil
}

func (s *Service) Transactions(ctx context.Context, userID string, limit int) ([]model.Transaction, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", apperr.ErrInvalidInput)
	}
	if s.transactions == nil {
		return nil, ErrNotConfigured
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	records, err := s.transactions.ListForUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list transactions: %w", apperr.ErrUpstream, err)
	}

	out := make([]model.Transaction, 0, len(records))
	for _, rec := range records {
		out = append(out, model.Transaction{
			ID:             rec.ID,
			UserID:         rec.UserID,
			Type:           enums.TransactionType(rec.Type),
			Amount:         rec.Amount,
			Currency:       rec.Currency,
			CreditsGranted: rec.CreditsGranted,
			Status:         enums.TransactionStatus(rec.Status),
			ExternalRef:    rec.ExternalRef,
			CreatedAt:      rec.CreatedAt,
		})
	}
	return out, nil
}

// LookupEvent reports whether an event id has been processed.
func (s *Service) LookupEvent(ctx context.Context, eventID string) (model.WebhookEvent, error) {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return model.WebhookEvent{}, fmt.Errorf("%w: event id is required", apperr.ErrInvalidInput)
	}
	if s.ledger == nil {
		return model.WebhookEvent{}, ErrNotConfigured
	}

	rec, err := s.ledger.Get(ctx, eventID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrWebhookEventNotFound) {
			return model.WebhookEvent{}, fmt.Errorf("%w: webhook event %s", apperr.ErrNotFound, eventID)
		}
		return model.WebhookEvent{}, fmt.Errorf("%w: get webhook event: %w", apperr.ErrUpstream, err)
	}

	return model.WebhookEvent{
		EventID:     rec.EventID,
		EventType:   rec.EventType,
		ProcessedAt: rec.ProcessedAt,
	}, nil
}

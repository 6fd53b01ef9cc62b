package model

import (
	"time"

	"github.com/lovevibesai/Love-Vibes-sub001/internal/domain/enums"
)

type Transaction struct {
	ID             string                  `json:"id"`
	UserID         string                  `json:"user_id"`
	Type           enums.TransactionType   `json:"type"`
	Amount         int64                   `json:"amount"`
	Currency       string                  `json:"currency"`
	CreditsGranted int                     `json:"credits_granted"`
	Status         enums.TransactionStatus `json:"status"`
	ExternalRef    string                  `json:"external_ref"`
	CreatedAt      time.Time               `json:"created_at"`
}

type WebhookEvent struct {
	EventID     string    `json:"event_id"`
	EventType   string    `json:"event_type"`
	ProcessedAt time.Time `json:"processed_at"`
}

type Balance struct {
	UserID                string                 `json:"user_id"`
	CreditsBalance        int                    `json:"credits_balance"`
	SubscriptionTier      enums.SubscriptionTier `json:"subscription_tier"`
	SubscriptionExpiresAt *time.Time             `json:"subscription_expires_at,omitempty"`
}

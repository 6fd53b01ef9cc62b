package dto

import "time"

type WebhookAckResponse struct {
	Received   bool `json:"received"`
	Idempotent bool `json:"idempotent,omitempty"`
}

type CreditCheckoutRequest struct {
	PackageID string `json:"package_id" validate:"notblank,max=64"`
}

type CreditCheckoutResponse struct {
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
	PackageID   string `json:"package_id"`
	Credits     int    `json:"credits"`
}

type BalanceResponse struct {
	CreditsBalance        int        `json:"credits_balance"`
	SubscriptionTier      string     `json:"subscription_tier"`
	SubscriptionExpiresAt *time.Time `json:"subscription_expires_at"`
}

type TransactionItemResponse struct {
	ID             string    `json:"id"`
	Type           string    `json:"type"`
	Amount         int64     `json:"amount"`
	Currency       string    `json:"currency"`
	CreditsGranted int       `json:"credits_granted"`
	Status         string    `json:"status"`
	ExternalRef    string    `json:"external_ref"`
	CreatedAt      time.Time `json:"created_at"`
}

type TransactionsResponse struct {
	Items []TransactionItemResponse `json:"items"`
}

type WebhookEventResponse struct {
	EventID     string    `json:"event_id"`
	EventType   string    `json:"event_type"`
	ProcessedAt time.Time `json:"processed_at"`
}

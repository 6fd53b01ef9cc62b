package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/lovevibesai/Love-Vibes-sub001/internal/domain/model"
	authsvc "github.com/lovevibesai/Love-Vibes-sub001/internal/services/auth"
	billingsvc "github.com/lovevibesai/Love-Vibes-sub001/internal/services/billing"
	"github.com/lovevibesai/Love-Vibes-sub001/internal/transport/http/dto"
	httperrors "github.com/lovevibesai/Love-Vibes-sub001/internal/transport/http/errors"
)

const (
	MaxWebhookBodyBytes    = 1 << 20
	defaultSignatureHeader = "Stripe-Signature"
)

type BillingService interface {
	HandleWebhook(ctx context.Context, rawBody []byte, signatureHeader string) (billingsvc.ProcessingResult, error)
	StartCreditPurchase(ctx context.Context, userID, packageID string) (billingsvc.CheckoutResult, error)
	Balance(ctx context.Context, userID string) (model.Balance, error)
	Transactions(ctx context.Context, userID string, limit int) ([]model.Transaction, error)
	LookupEvent(ctx context.Context, eventID string) (model.WebhookEvent, error)
}

type BillingHandler struct {
	service         BillingService
	signatureHeader string
	logger          *zap.Logger
}

func NewBillingHandler(service BillingService, signatureHeader string, logger *zap.Logger) *BillingHandler {
	if strings.TrimSpace(signatureHeader) == "" {
		signatureHeader = defaultSignatureHeader
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BillingHandler{service: service, signatureHeader: signatureHeader, logger: logger}
}

// Webhook reads the raw body untouched; the signature covers the exact bytes.
func (h *BillingHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeUnavailable(w, "BILLING_SERVICE_UNAVAILABLE", "billing service is unavailable")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxWebhookBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httperrors.Write(w, http.StatusRequestEntityTooLarge, httperrors.APIError{
				Code:    "PAYLOAD_TOO_LARGE",
				Message: "webhook body exceeds 1 MiB",
			})
			return
		}
		writeBadRequest(w, "INVALID_REQUEST", "failed to read request body")
		return
	}

	result, err := h.service.HandleWebhook(r.Context(), body, r.Header.Get(h.signatureHeader))
	if err != nil {
		h.logger.Warn("webhook rejected", zap.Error(err))
		writeServiceError(w, err, http.StatusInternalServerError, "webhook processing failed")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.WebhookAckResponse{
		Received:   true,
		Idempotent: result.Idempotent,
	})
}

func (h *BillingHandler) CreditCheckout(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeUnavailable(w, "BILLING_SERVICE_UNAVAILABLE", "billing service is unavailable")
		return
	}

	var req dto.CreditCheckoutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if !validateRequest(w, req) {
		return
	}

	result, err := h.service.StartCreditPurchase(r.Context(), identity.UserID, req.PackageID)
	if err != nil {
		writeServiceError(w, err, http.StatusBadGateway, "checkout provider failed")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.CreditCheckoutResponse{
		SessionID:   result.SessionID,
		CheckoutURL: result.CheckoutURL,
		PackageID:   result.PackageID,
		Credits:     result.Credits,
	})
}

func (h *BillingHandler) Balance(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeUnavailable(w, "BILLING_SERVICE_UNAVAILABLE", "billing service is unavailable")
		return
	}

	balance, err := h.service.Balance(r.Context(), identity.UserID)
	if err != nil {
		writeServiceError(w, err, http.StatusInternalServerError, "failed to load balance")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.BalanceResponse{
		CreditsBalance:        balance.CreditsBalance,
		SubscriptionTier:      string(balance.SubscriptionTier),
		SubscriptionExpiresAt: balance.SubscriptionExpiresAt,
	})
}

func (h *BillingHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeUnavailable(w, "BILLING_SERVICE_UNAVAILABLE", "billing service is unavailable")
		return
	}

	items, err := h.service.Transactions(r.Context(), identity.UserID, parseIntOrDefault(r.URL.Query().Get("limit"), 0))
	if err != nil {
		writeServiceError(w, err, http.StatusInternalServerError, "failed to load transactions")
		return
	}

	out := make([]dto.TransactionItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, dto.TransactionItemResponse{
			ID:             item.ID,
			Type:           string(item.Type),
			Amount:         item.Amount,
			Currency:       item.Currency,
			CreditsGranted: item.CreditsGranted,
			Status:         string(item.Status),
			ExternalRef:    item.ExternalRef,
			CreatedAt:      item.CreatedAt,
		})
	}
	httperrors.Write(w, http.StatusOK, dto.TransactionsResponse{Items: out})
}

func (h *BillingHandler) WebhookEvent(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeUnavailable(w, "BILLING_SERVICE_UNAVAILABLE", "billing service is unavailable")
		return
	}

	event, err := h.service.LookupEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err, http.StatusInternalServerError, "failed to load webhook event")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.WebhookEventResponse{
		EventID:     event.EventID,
		EventType:   event.EventType,
		ProcessedAt: event.ProcessedAt,
	})
}

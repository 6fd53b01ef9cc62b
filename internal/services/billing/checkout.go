package billing

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"go.uber.org/zap"

	"github.com/lovevibesai/Love-Vibes-sub001/internal/domain/apperr"
	"github.com/lovevibesai/Love-Vibes-sub001/internal/domain/rules"
)

var (
	ErrUnknownPackage       = fmt.Errorf("%w: unknown credit package", apperr.ErrInvalidInput)
	ErrCheckoutUnavailable  = fmt.Errorf("%w: checkout provider is not configured", apperr.ErrMisconfigured)
	ErrCheckoutProviderFail = fmt.Errorf("%w: checkout provider failed", apperr.ErrUpstream)
)

type CheckoutRequest struct {
	UserID      string
	PackageID   string
	Credits     int
	UnitAmount  int64
	Currency    string
	ProductName string
	SuccessURL  string
	CancelURL   string
}

type CheckoutSession struct {
	ID  string
	URL string
}

type CheckoutProvider interface {
	CreateCreditCheckout(ctx context.Context, req CheckoutRequest) (CheckoutSession, error)
}

type CheckoutResult struct {
	SessionID   string
	CheckoutURL string
	PackageID   string
	Credits     int
}

// StartCreditPurchase opens a hosted checkout for a credit package. Credits
// are granted later by the checkout.session.completed webhook.
func (s *Service) StartCreditPurchase(ctx context.Context, userID, packageID string) (CheckoutResult, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return CheckoutResult{}, fmt.Errorf("%w: user id is required", apperr.ErrInvalidInput)
	}

	pkg, ok := rules.LookupCreditPackage(packageID)
	if !ok {
		return CheckoutResult{}, ErrUnknownPackage
	}
	if s.checkout == nil {
		return CheckoutResult{}, ErrCheckoutUnavailable
	}

	sess, err := s.checkout.CreateCreditCheckout(ctx, CheckoutRequest{
		UserID:      userID,
		PackageID:   pkg.ID,
		Credits:     pkg.Credits,
		UnitAmount:  pkg.PriceCents,
		Currency:    s.cfg.Currency,
		ProductName: pkg.DisplayName,
		SuccessURL:  s.cfg.SuccessURL,
		CancelURL:   s.cfg.CancelURL,
	})
	if err != nil {
		if errors.Is(err, apperr.ErrMisconfigured) {
			return CheckoutResult{}, err
		}
		s.logger.Error("create checkout session failed", zap.Error(err), zap.String("user_id", userID), zap.String("package_id", pkg.ID))
		return CheckoutResult{}, fmt.Errorf("%w: %w", ErrCheckoutProviderFail, err)
	}

	return CheckoutResult{
		SessionID:   sess.ID,
		CheckoutURL: sess.URL,
		PackageID:   pkg.ID,
		Credits:     pkg.Credits,
	}, nil
}

type StripeCheckout struct {
	client session.Client
}

func NewStripeCheckout(apiKey string) *StripeCheckout {
	return &StripeCheckout{
		client: session.Client{B: stripe.GetBackend(stripe.APIBackend), Key: strings.TrimSpace(apiKey)},
	}
}

func (c *StripeCheckout) CreateCreditCheckout(ctx context.Context, req CheckoutRequest) (CheckoutSession, error) {
	if c == nil || c.client.Key == "" {
		return CheckoutSession{}, ErrCheckoutUnavailable
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(req.UserID),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(req.Currency),
					UnitAmount: stripe.Int64(req.UnitAmount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.ProductName),
					},
				},
			},
		},
	}
	params.Context = ctx
	params.AddMetadata("user_id", req.UserID)
	params.AddMetadata("package_id", req.PackageID)
	params.AddMetadata("credits", strconv.Itoa(req.Credits))

	sess, err := c.client.New(params)
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("create stripe checkout session: %w", err)
	}

	return CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

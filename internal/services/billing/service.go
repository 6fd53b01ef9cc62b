package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/lovevibesai/Love-Vibes-sub001/internal/domain/apperr"
	"github.com/lovevibesai/Love-Vibes-sub001/internal/domain/enums"
	"github.com/lovevibesai/Love-Vibes-sub001/internal/pkg/webhooksig"
	pgrepo "github.com/lovevibesai/Love-Vibes-sub001/internal/repo/postgres"
)

var ErrNotConfigured = fmt.Errorf("%w: billing dependencies are not configured", apperr.ErrMisconfigured)

type TxRunner interface {
	WithTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error
}

type LedgerStore interface {
	Claim(ctx context.Context, tx pgx.Tx, eventID, eventType string, now time.Time) (bool, error)
	Get(ctx context.Context, eventID string) (pgrepo.WebhookEventRecord, error)
}

type UserStore interface {
	AddCredits(ctx context.Context, tx pgx.Tx, userID string, credits int, now time.Time) (int, error)
	SetSubscription(ctx context.Context, tx pgx.Tx, userID, tier string, expiresAt *time.Time, subscriptionID string, now time.Time) error
	GetBalance(ctx context.Context, userID string) (pgrepo.BalanceRecord, error)
}

type TransactionStore interface {
	Append(ctx context.Context, tx pgx.Tx, rec pgrepo.TransactionRecord) (pgrepo.TransactionRecord, error)
	ListForUser(ctx context.Context, userID string, limit int) ([]pgrepo.TransactionRecord, error)
}

type PayloadArchive interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
}

type Notifier interface {
	Notify(ctx context.Context, text string) error
}

type Config struct {
	WebhookSecret      string
	SignatureTolerance time.Duration
	Currency           string
	SuccessURL         string
	CancelURL          string
}

type Dependencies struct {
	Tx           TxRunner
	Ledger       LedgerStore
	Users        UserStore
	Transactions TransactionStore
	Checkout     CheckoutProvider
	Archive      PayloadArchive
	Alerts       Notifier
	Logger       *zap.Logger
}

type ProcessingResult struct {
	EventID    string
	EventType  string
	Idempotent bool
	Ignored    bool
}

type Service struct {
	tx           TxRunner
	ledger       LedgerStore
	users        UserStore
	transactions TransactionStore
	checkout     CheckoutProvider
	archive      PayloadArchive
	alerts       Notifier
	logger       *zap.Logger
	cfg          Config
	now          func() time.Time
}

func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.SignatureTolerance <= 0 {
		cfg.SignatureTolerance = webhooksig.DefaultTolerance
	}
	if strings.TrimSpace(cfg.Currency) == "" {
		cfg.Currency = "usd"
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		tx:           deps.Tx,
		ledger:       deps.Ledger,
		users:        deps.Users,
		transactions: deps.Transactions,
		checkout:     deps.Checkout,
		archive:      deps.Archive,
		alerts:       deps.Alerts,
		logger:       logger,
		cfg:          cfg,
		now:          time.Now,
	}
}

// HandleWebhook processes a delivery with the configured signing secret.
func (s *Service) HandleWebhook(ctx context.Context, rawBody []byte, signatureHeader string) (ProcessingResult, error) {
	return s.Process(ctx, rawBody, signatureHeader, s.cfg.WebhookSecret)
}

// Process verifies, decodes and applies one webhook delivery at most once per
// event id. The ledger row and the side effects commit together, so a failed
// dispatch leaves the event unrecorded and the sender's retry runs it again.
func (s *Service) Process(ctx context.Context, rawBody []byte, signatureHeader, secret string) (ProcessingResult, error) {
	if err := webhooksig.Verify(rawBody, signatureHeader, secret, s.cfg.SignatureTolerance); err != nil {
		return ProcessingResult{}, err
	}

	event, err := ParseEvent(rawBody)
	if err != nil {
		return ProcessingResult{}, err
	}

	if s.tx == nil || s.ledger == nil || s.users == nil || s.transactions == nil {
		return ProcessingResult{}, ErrNotConfigured
	}

	result := ProcessingResult{EventID: event.ID, EventType: event.Type}
	_, result.Ignored = event.Payload.(Unhandled)

	log := s.logger.With(zap.String("event_id", event.ID), zap.String("event_type", event.Type))

	now := s.now().UTC()
	err = s.tx.WithTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		claimed, err := s.ledger.Claim(txCtx, tx, event.ID, event.Type, now)
		if err != nil {
			return err
		}
		if !claimed {
			result.Idempotent = true
			return nil
		}
		return s.dispatch(txCtx, tx, event, now, log)
	})
	if err != nil {
		log.Error("webhook processing failed", zap.Error(err))
		s.alert(ctx, "Webhook "+event.Type+" ("+event.ID+") failed and will be retried: "+err.Error())
		return ProcessingResult{}, fmt.Errorf("%w: process event %s: %w", apperr.ErrUpstream, event.ID, err)
	}

	if result.Idempotent {
		log.Info("webhook already processed", zap.Bool("idempotent", true))
		return result, nil
	}

	log.Info("webhook processed", zap.Bool("ignored", result.Ignored))
	s.afterCommit(ctx, event, rawBody, log)
	return result, nil
}

func (s *Service) dispatch(ctx context.Context, tx pgx.Tx, event Event, now time.Time, log *zap.Logger) error {
	switch p := event.Payload.(type) {
	case CheckoutCompleted:
		return s.applyCheckout(ctx, tx, event, p, now, log)
	case SubscriptionChanged:
		if err := s.users.SetSubscription(ctx, tx, p.UserID, string(p.Tier), p.ExpiresAt, subscriptionRef(p), now); err != nil {
			return err
		}
		log.Info("subscription updated",
			zap.String("user_id", p.UserID),
			zap.String("tier", string(p.Tier)),
			zap.Bool("deleted", p.Deleted),
		)
		return nil
	case PaymentFailed:
		log.Warn("payment failed",
			zap.String("object_id", p.ObjectID),
			zap.String("customer_id", p.CustomerID),
			zap.String("user_id", p.UserID),
			zap.Int64("amount_due", p.AmountDue),
		)
		return nil
	default:
		log.Info("webhook event type not handled")
		return nil
	}
}

func (s *Service) applyCheckout(ctx context.Context, tx pgx.Tx, event Event, p CheckoutCompleted, now time.Time, log *zap.Logger) error {
	if p.Credits > maxGrantableCredits {
		log.Error("checkout grant exceeds storable credits, recorded without granting",
			zap.String("user_id", p.UserID),
			zap.Int("credits", p.Credits),
			zap.String("session_id", p.SessionID),
		)
		return nil
	}

	currency := p.Currency
	if currency == "" {
		currency = s.cfg.Currency
	}

	_, err := s.transactions.Append(ctx, tx, pgrepo.TransactionRecord{
		UserID:         p.UserID,
		Type:           string(enums.TransactionTypeCreditPurchase),
		Amount:         p.AmountTotal,
		Currency:       currency,
		CreditsGranted: p.Credits,
		Status:         string(enums.TransactionStatusSucceeded),
		ExternalRef:    p.SessionID,
		CreatedAt:      now,
	})
	if errors.Is(err, pgrepo.ErrDuplicateExternalRef) {
		log.Warn("checkout session already booked under another event", zap.String("session_id", p.SessionID))
		return nil
	}
	if err != nil {
		return err
	}

	balance, err := s.users.AddCredits(ctx, tx, p.UserID, p.Credits, now)
	if err != nil {
		return err
	}

	log.Info("credits granted",
		zap.String("user_id", p.UserID),
		zap.Int("credits", p.Credits),
		zap.Int("balance", balance),
		zap.String("session_id", p.SessionID),
	)
	return nil
}

func (s *Service) afterCommit(ctx context.Context, event Event, rawBody []byte, log *zap.Logger) {
	switch p := event.Payload.(type) {
	case PaymentFailed:
		s.alert(ctx, fmt.Sprintf("Payment failed: %s customer=%s user=%s amount=%d %s",
			p.ObjectID, p.CustomerID, p.UserID, p.AmountDue, strings.ToUpper(p.Currency)))
	case CheckoutCompleted:
		if p.Credits > maxGrantableCredits {
			s.alert(ctx, fmt.Sprintf("Checkout %s (%s) for user=%s carried %d credits; recorded without granting, review manually",
				p.SessionID, event.ID, p.UserID, p.Credits))
		}
	}

	if s.archive == nil {
		return
	}
	key := archiveKey(s.now(), event.ID)
	if err := s.archive.Put(ctx, key, rawBody, "application/json"); err != nil {
		log.Warn("archive webhook payload failed", zap.Error(err), zap.String("object_key", key))
	}
}

func (s *Service) alert(ctx context.Context, text string) {
	if s.alerts == nil {
		return
	}
	if err := s.alerts.Notify(ctx, text); err != nil {
		s.logger.Warn("send billing alert failed", zap.Error(err))
	}
}

func subscriptionRef(p SubscriptionChanged) string {
	if p.Deleted {
		return ""
	}
	return p.SubscriptionID
}

package billing

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v82"

	"github.com/lovevibesai/Love-Vibes-sub001/internal/domain/apperr"
	"github.com/lovevibesai/Love-Vibes-sub001/internal/domain/enums"
)

const (
	EventCheckoutCompleted    = string(stripe.EventTypeCheckoutSessionCompleted)
	EventSubscriptionCreated  = string(stripe.EventTypeCustomerSubscriptionCreated)
	EventSubscriptionUpdated  = string(stripe.EventTypeCustomerSubscriptionUpdated)
	EventSubscriptionDeleted  = string(stripe.EventTypeCustomerSubscriptionDeleted)
	EventInvoicePaymentFailed = string(stripe.EventTypeInvoicePaymentFailed)
	EventPaymentIntentFailed  = string(stripe.EventTypePaymentIntentPaymentFailed)
	defaultSubscriptionTier   = enums.SubscriptionTierPlus

	// maxGrantableCredits is the largest grant the INTEGER columns can hold.
	maxGrantableCredits = math.MaxInt32
)

var ErrMalformedEvent = fmt.Errorf("%w: malformed webhook event", apperr.ErrInvalidInput)

type Event struct {
	ID      string
	Type    string
	Created time.Time
	Payload Payload
}

// Payload is one of CheckoutCompleted, SubscriptionChanged, PaymentFailed or Unhandled.
type Payload interface {
	payload()
}

type CheckoutCompleted struct {
	SessionID   string
	UserID      string
	Credits     int
	PackageID   string
	AmountTotal int64
	Currency    string
}

type SubscriptionChanged struct {
	SubscriptionID string
	UserID         string
	Tier           enums.SubscriptionTier
	ExpiresAt      *time.Time
	Deleted        bool
}

type PaymentFailed struct {
	ObjectID   string
	CustomerID string
	UserID     string
	AmountDue  int64
	Currency   string
}

type Unhandled struct{}

func (CheckoutCompleted) payload()   {}
func (SubscriptionChanged) payload() {}
func (PaymentFailed) payload()       {}
func (Unhandled) payload()           {}

type checkoutSessionObject struct {
	ID                string            `json:"id"`
	ClientReferenceID string            `json:"client_reference_id"`
	Metadata          map[string]string `json:"metadata"`
	AmountTotal       int64             `json:"amount_total"`
	Currency          string            `json:"currency"`
}

type subscriptionObject struct {
	ID               string            `json:"id"`
	Status           string            `json:"status"`
	CurrentPeriodEnd int64             `json:"current_period_end"`
	Metadata         map[string]string `json:"metadata"`
	Items            struct {
		Data []struct {
			CurrentPeriodEnd int64 `json:"current_period_end"`
		} `json:"data"`
	} `json:"items"`
}

type paymentFailedObject struct {
	ID               string            `json:"id"`
	Customer         string            `json:"customer"`
	AmountDue        int64             `json:"amount_due"`
	Amount           int64             `json:"amount"`
	Currency         string            `json:"currency"`
	Metadata         map[string]string `json:"metadata"`
	SubscriptionInfo struct {
		Metadata map[string]string `json:"metadata"`
	} `json:"subscription_details"`
}

// eventHead is the part of the envelope every event type shares.
type eventHead struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
}

// ParseEvent decodes a verified Stripe event body into one Payload variant.
// Types without a handler are returned as Unhandled whatever their data holds.
func ParseEvent(raw []byte) (Event, error) {
	var head eventHead
	if err := json.Unmarshal(raw, &head); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if strings.TrimSpace(head.ID) == "" || strings.TrimSpace(head.Type) == "" {
		return Event{}, fmt.Errorf("%w: id and type are required", ErrMalformedEvent)
	}

	event := Event{
		ID:   head.ID,
		Type: head.Type,
	}
	if head.Created > 0 {
		event.Created = time.Unix(head.Created, 0).UTC()
	}

	if !handledEventType(event.Type) {
		event.Payload = Unhandled{}
		return event, nil
	}

	var envelope stripe.Event
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	var object json.RawMessage
	if envelope.Data != nil {
		object = envelope.Data.Raw
	}

	var err error
	switch event.Type {
	case EventCheckoutCompleted:
		event.Payload, err = parseCheckout(object)
	case EventSubscriptionCreated, EventSubscriptionUpdated, EventSubscriptionDeleted:
		event.Payload, err = parseSubscription(object, event.Type == EventSubscriptionDeleted)
	case EventInvoicePaymentFailed, EventPaymentIntentFailed:
		event.Payload, err = parsePaymentFailed(object)
	}
	if err != nil {
		return Event{}, err
	}

	return event, nil
}

func handledEventType(eventType string) bool {
	switch eventType {
	case EventCheckoutCompleted,
		EventSubscriptionCreated, EventSubscriptionUpdated, EventSubscriptionDeleted,
		EventInvoicePaymentFailed, EventPaymentIntentFailed:
		return true
	}
	return false
}

func parseCheckout(object json.RawMessage) (CheckoutCompleted, error) {
	var session checkoutSessionObject
	if err := decodeObject(object, &session); err != nil {
		return CheckoutCompleted{}, err
	}

	userID := strings.TrimSpace(session.ClientReferenceID)
	if userID == "" {
		userID = strings.TrimSpace(session.Metadata["user_id"])
	}
	if session.ID == "" || userID == "" {
		return CheckoutCompleted{}, fmt.Errorf("%w: checkout session id and client_reference_id are required", ErrMalformedEvent)
	}

	credits, err := strconv.Atoi(strings.TrimSpace(session.Metadata["credits"]))
	if err != nil || credits <= 0 {
		return CheckoutCompleted{}, fmt.Errorf("%w: metadata.credits must be a positive integer", ErrMalformedEvent)
	}

	return CheckoutCompleted{
		SessionID:   session.ID,
		UserID:      userID,
		Credits:     credits,
		PackageID:   strings.TrimSpace(session.Metadata["package_id"]),
		AmountTotal: session.AmountTotal,
		Currency:    strings.ToLower(session.Currency),
	}, nil
}

func parseSubscription(object json.RawMessage, deleted bool) (SubscriptionChanged, error) {
	var sub subscriptionObject
	if err := decodeObject(object, &sub); err != nil {
		return SubscriptionChanged{}, err
	}

	userID := strings.TrimSpace(sub.Metadata["user_id"])
	if sub.ID == "" || userID == "" {
		return SubscriptionChanged{}, fmt.Errorf("%w: subscription id and metadata.user_id are required", ErrMalformedEvent)
	}

	out := SubscriptionChanged{
		SubscriptionID: sub.ID,
		UserID:         userID,
		Deleted:        deleted,
	}
	if deleted {
		out.Tier = enums.SubscriptionTierFree
		return out, nil
	}

	out.Tier = defaultSubscriptionTier
	if raw := strings.ToLower(strings.TrimSpace(sub.Metadata["tier"])); raw != "" {
		tier, ok := enums.ParseSubscriptionTier(raw)
		if !ok {
			return SubscriptionChanged{}, fmt.Errorf("%w: unknown subscription tier %q", ErrMalformedEvent, raw)
		}
		out.Tier = tier
	}

	periodEnd := sub.CurrentPeriodEnd
	if periodEnd == 0 && len(sub.Items.Data) > 0 {
		periodEnd = sub.Items.Data[0].CurrentPeriodEnd
	}
	if periodEnd > 0 {
		expiresAt := time.Unix(periodEnd, 0).UTC()
		out.ExpiresAt = &expiresAt
	}

	return out, nil
}

func parsePaymentFailed(object json.RawMessage) (PaymentFailed, error) {
	var obj paymentFailedObject
	if err := decodeObject(object, &obj); err != nil {
		return PaymentFailed{}, err
	}

	amount := obj.AmountDue
	if amount == 0 {
		amount = obj.Amount
	}
	userID := strings.TrimSpace(obj.Metadata["user_id"])
	if userID == "" {
		userID = strings.TrimSpace(obj.SubscriptionInfo.Metadata["user_id"])
	}

	return PaymentFailed{
		ObjectID:   obj.ID,
		CustomerID: obj.Customer,
		UserID:     userID,
		AmountDue:  amount,
		Currency:   strings.ToLower(obj.Currency),
	}, nil
}

func decodeObject(object json.RawMessage, target interface{}) error {
	if len(object) == 0 {
		return fmt.Errorf("%w: data.object is required", ErrMalformedEvent)
	}
	if err := json.Unmarshal(object, target); err != nil {
		return fmt.Errorf("%w: decode data.object: %v", ErrMalformedEvent, err)
	}
	return nil
}

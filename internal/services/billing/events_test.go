package billing

import (
	"errors"
	"testing"
	"time"

	"github.com/lovevibesai/Love-Vibes-sub001/internal/domain/apperr"
	"github.com/lovevibesai/Love-Vibes-sub001/internal/domain/enums"
)

func TestParseEventCheckoutCompleted(t *testing.T) {
	event, err := ParseEvent(checkoutEvent("evt_1", "cs_1", "u1", 50))
	if err != nil {
		t.Fatalf("parse checkout: %v", err)
	}
	if event.ID != "evt_1" || event.Type != EventCheckoutCompleted {
		t.Fatalf("unexpected envelope: %+v", event)
	}
	if !event.Created.Equal(time.Unix(1773478800, 0)) {
		t.Fatalf("unexpected created: %s", event.Created)
	}

	payload, ok := event.Payload.(CheckoutCompleted)
	if !ok {
		t.Fatalf("expected CheckoutCompleted, got %T", event.Payload)
	}
	if payload.SessionID != "cs_1" || payload.UserID != "u1" || payload.Credits != 50 || payload.AmountTotal != 1999 {
		t.Fatalf("unexpected checkout payload: %+v", payload)
	}
}

func TestParseEventCheckoutFallsBackToMetadataUser(t *testing.T) {
	raw := []byte(`{"id":"evt_2","type":"checkout.session.completed","data":{"object":{"id":"cs_2","metadata":{"user_id":"u2","credits":"10"}}}}`)
	event, err := ParseEvent(raw)
	if err != nil {
		t.Fatalf("parse checkout: %v", err)
	}
	if got := event.Payload.(CheckoutCompleted).UserID; got != "u2" {
		t.Fatalf("expected metadata user, got %q", got)
	}
}

func TestParseEventRejectsMalformedBodies(t *testing.T) {
	cases := map[string]string{
		"not json":          `{"id":`,
		"missing id":        `{"type":"checkout.session.completed","data":{"object":{}}}`,
		"missing type":      `{"id":"evt_x","data":{"object":{}}}`,
		"missing object":    `{"id":"evt_x","type":"checkout.session.completed"}`,
		"no user":           `{"id":"evt_x","type":"checkout.session.completed","data":{"object":{"id":"cs_x","metadata":{"credits":"10"}}}}`,
		"no credits":        `{"id":"evt_x","type":"checkout.session.completed","data":{"object":{"id":"cs_x","client_reference_id":"u1"}}}`,
		"negative credits":  `{"id":"evt_x","type":"checkout.session.completed","data":{"object":{"id":"cs_x","client_reference_id":"u1","metadata":{"credits":"-5"}}}}`,
		"subscription user": `{"id":"evt_x","type":"customer.subscription.updated","data":{"object":{"id":"sub_x"}}}`,
		"unknown tier":      `{"id":"evt_x","type":"customer.subscription.updated","data":{"object":{"id":"sub_x","metadata":{"user_id":"u1","tier":"gold"}}}}`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseEvent([]byte(raw))
			if !errors.Is(err, ErrMalformedEvent) || !errors.Is(err, apperr.ErrInvalidInput) {
				t.Fatalf("expected malformed event error, got %v", err)
			}
		})
	}
}

func TestParseEventSubscriptionUsesItemPeriodEnd(t *testing.T) {
	raw := []byte(`{"id":"evt_s","type":"customer.subscription.updated","data":{"object":{"id":"sub_1","metadata":{"user_id":"u1"},"items":{"data":[{"current_period_end":1775000000}]}}}}`)
	event, err := ParseEvent(raw)
	if err != nil {
		t.Fatalf("parse subscription: %v", err)
	}
	payload := event.Payload.(SubscriptionChanged)
	if payload.Tier != enums.SubscriptionTierPlus {
		t.Fatalf("expected default plus tier, got %s", payload.Tier)
	}
	if payload.ExpiresAt == nil || payload.ExpiresAt.Unix() != 1775000000 {
		t.Fatalf("unexpected expiry: %v", payload.ExpiresAt)
	}
}

func TestParseEventPaymentIntentFailed(t *testing.T) {
	raw := []byte(`{"id":"evt_p","type":"payment_intent.payment_failed","data":{"object":{"id":"pi_1","customer":"cus_1","amount":499,"currency":"USD","metadata":{"user_id":"u1"}}}}`)
	event, err := ParseEvent(raw)
	if err != nil {
		t.Fatalf("parse payment failed: %v", err)
	}
	payload := event.Payload.(PaymentFailed)
	if payload.AmountDue != 499 || payload.Currency != "usd" || payload.UserID != "u1" {
		t.Fatalf("unexpected payment failed payload: %+v", payload)
	}
}

func TestParseEventUnknownTypeIsUnhandled(t *testing.T) {
	event, err := ParseEvent([]byte(`{"id":"evt_u","type":"charge.refunded"}`))
	if err != nil {
		t.Fatalf("parse unknown type: %v", err)
	}
	if _, ok := event.Payload.(Unhandled); !ok {
		t.Fatalf("expected Unhandled, got %T", event.Payload)
	}
}

func TestParseEventUnknownTypeAcceptsAnyObjectShape(t *testing.T) {
	for _, raw := range []string{
		`{"id":"evt_r","type":"radar.early_fraud_warning.created","data":{"object":"ch_1"}}`,
		`{"id":"evt_r","type":"radar.early_fraud_warning.created","data":[1,2]}`,
	} {
		event, err := ParseEvent([]byte(raw))
		if err != nil {
			t.Fatalf("parse %s: %v", raw, err)
		}
		if _, ok := event.Payload.(Unhandled); !ok {
			t.Fatalf("expected Unhandled, got %T", event.Payload)
		}
	}
}

func TestParseEventTrustsLargeSignedCredits(t *testing.T) {
	raw := []byte(`{"id":"evt_big","type":"checkout.session.completed","data":{"object":{"id":"cs_big","client_reference_id":"u1","metadata":{"credits":"250000"}}}}`)
	event, err := ParseEvent(raw)
	if err != nil {
		t.Fatalf("parse large grant: %v", err)
	}
	if got := event.Payload.(CheckoutCompleted).Credits; got != 250000 {
		t.Fatalf("expected 250000 credits, got %d", got)
	}
}

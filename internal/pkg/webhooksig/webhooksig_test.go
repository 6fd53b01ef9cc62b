package webhooksig

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/lovevibesai/Love-Vibes-sub001/internal/domain/apperr"
)

const testSecret = "whsec_test_secret"

var payload = []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)

func TestVerifyAcceptsFreshSignature(t *testing.T) {
	header := BuildHeader(payload, testSecret, time.Now().Add(-10*time.Second))

	if err := Verify(payload, header, testSecret, DefaultTolerance); err != nil {
		t.Fatalf("verify fresh signature: %v", err)
	}
}

func TestVerifyAcceptsStripeGeneratedHeader(t *testing.T) {
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    testSecret,
		Timestamp: time.Now(),
	})

	if err := Verify(signed.Payload, signed.Header, testSecret, DefaultTolerance); err != nil {
		t.Fatalf("verify stripe generated header: %v", err)
	}
	if got := BuildHeader(signed.Payload, testSecret, signed.Timestamp); got != signed.Header {
		t.Fatalf("header mismatch with stripe-go: got %s want %s", got, signed.Header)
	}
}

func TestVerifyDoesNotDecodeBody(t *testing.T) {
	body := []byte("not json at all")
	if err := Verify(body, BuildHeader(body, testSecret, time.Now()), testSecret, DefaultTolerance); err != nil {
		t.Fatalf("verify opaque body: %v", err)
	}
}

func TestVerifyRejections(t *testing.T) {
	now := time.Now()
	fresh := BuildHeader(payload, testSecret, now)
	sig := fresh[len("t="+strconv.FormatInt(now.Unix(), 10)+","):]

	cases := []struct {
		name    string
		body    []byte
		header  string
		secret  string
		wantErr error
		kind    error
	}{
		{name: "missing header", body: payload, header: "", secret: testSecret, wantErr: ErrMissingSignature, kind: apperr.ErrUnauthenticated},
		{name: "missing secret", body: payload, header: fresh, secret: "", wantErr: ErrSecretNotConfigured, kind: apperr.ErrMisconfigured},
		{name: "wrong secret", body: payload, header: fresh, secret: "whsec_other", wantErr: ErrSignatureMismatch, kind: apperr.ErrUnauthenticated},
		{name: "tampered body", body: []byte(`{"id":"evt_2"}`), header: fresh, secret: testSecret, wantErr: ErrSignatureMismatch, kind: apperr.ErrUnauthenticated},
		{name: "stale timestamp", body: payload, header: BuildHeader(payload, testSecret, now.Add(-301*time.Second)), secret: testSecret, wantErr: ErrTimestampExpired, kind: apperr.ErrUnauthenticated},
		{name: "no v1", body: payload, header: "t=" + strconv.FormatInt(now.Unix(), 10), secret: testSecret, wantErr: ErrSignatureMismatch, kind: apperr.ErrUnauthenticated},
		{name: "no timestamp", body: payload, header: sig, secret: testSecret, wantErr: ErrTimestampExpired, kind: apperr.ErrUnauthenticated},
		{name: "garbage timestamp", body: payload, header: "t=abc,v1=00", secret: testSecret, wantErr: ErrMalformedHeader, kind: apperr.ErrUnauthenticated},
		{name: "garbage header", body: payload, header: "garbage", secret: testSecret, wantErr: ErrMalformedHeader, kind: apperr.ErrUnauthenticated},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Verify(tc.body, tc.header, tc.secret, DefaultTolerance)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			if !errors.Is(err, tc.kind) {
				t.Fatalf("expected kind %v, got %v", tc.kind, err)
			}
		})
	}
}

func TestVerifyAcceptsInsideTolerance(t *testing.T) {
	header := BuildHeader(payload, testSecret, time.Now().Add(-290*time.Second))

	if err := Verify(payload, header, testSecret, DefaultTolerance); err != nil {
		t.Fatalf("signature inside tolerance should pass: %v", err)
	}
}

func TestVerifyAcceptsAnyRotatedSignature(t *testing.T) {
	now := time.Now()
	old := BuildHeader(payload, "whsec_old", now)
	current := BuildHeader(payload, testSecret, now)
	stamp := "t=" + strconv.FormatInt(now.Unix(), 10) + ","
	header := old + ",v0=deadbeef," + current[len(stamp):]

	if err := Verify(payload, header, testSecret, DefaultTolerance); err != nil {
		t.Fatalf("verify rotated header: %v", err)
	}
}

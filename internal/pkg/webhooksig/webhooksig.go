package webhooksig

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/lovevibesai/Love-Vibes-sub001/internal/domain/apperr"
)

const DefaultTolerance = webhook.DefaultTolerance

var (
	ErrMissingSignature    = fmt.Errorf("%w: missing signature header", apperr.ErrUnauthenticated)
	ErrMalformedHeader     = fmt.Errorf("%w: malformed signature header", apperr.ErrUnauthenticated)
	ErrTimestampExpired    = fmt.Errorf("%w: signature timestamp outside tolerance", apperr.ErrUnauthenticated)
	ErrSignatureMismatch   = fmt.Errorf("%w: signature mismatch", apperr.ErrUnauthenticated)
	ErrSecretNotConfigured = fmt.Errorf("%w: webhook secret is not configured", apperr.ErrMisconfigured)
)

// Verify checks a "t=<unix>,v1=<hex>[,v1=<hex>]" header against payload
// without decoding it.
func Verify(payload []byte, header, secret string, tolerance time.Duration) error {
	if strings.TrimSpace(header) == "" {
		return ErrMissingSignature
	}
	if secret == "" {
		return ErrSecretNotConfigured
	}
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}

	err := webhook.ValidatePayloadWithTolerance(payload, header, secret, tolerance)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, webhook.ErrNotSigned), errors.Is(err, webhook.ErrInvalidHeader):
		return ErrMalformedHeader
	case errors.Is(err, webhook.ErrTooOld):
		return ErrTimestampExpired
	case errors.Is(err, webhook.ErrNoValidSignature):
		return ErrSignatureMismatch
	default:
		return fmt.Errorf("%w: %v", ErrSignatureMismatch, err)
	}
}

// BuildHeader produces a complete signature header value for payload at t.
func BuildHeader(payload []byte, secret string, t time.Time) string {
	return "t=" + strconv.FormatInt(t.Unix(), 10) + ",v1=" + hex.EncodeToString(webhook.ComputeSignature(t, payload, secret))
}

package errors

import (
	"encoding/json"
	"net/http"

	"github.com/lovevibesai/Love-Vibes-sub001/internal/domain/apperr"
)

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type RateLimitError struct {
	Code          string `json:"code"`
	Message       string `json:"message"`
	RetryAfterSec int64  `json:"retry_after_sec"`
}

func Write(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// StatusFor maps an error kind to a status. upstreamStatus is used for
// ErrUpstream, which callers report as 500, 502 or 503 depending on the route.
func StatusFor(err error, upstreamStatus int) int {
	switch apperr.Kind(err) {
	case apperr.ErrUnauthenticated:
		return http.StatusUnauthorized
	case apperr.ErrInvalidInput:
		return http.StatusBadRequest
	case apperr.ErrNotFound:
		return http.StatusNotFound
	case apperr.ErrConflict:
		return http.StatusConflict
	case apperr.ErrMisconfigured:
		return http.StatusServiceUnavailable
	case apperr.ErrUpstream:
		if upstreamStatus == 0 {
			return http.StatusInternalServerError
		}
		return upstreamStatus
	default:
		return http.StatusInternalServerError
	}
}

// CodeFor returns the wire error code for a status chosen by StatusFor.
func CodeFor(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusBadRequest:
		return "VALIDATION_ERROR"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusServiceUnavailable:
		return "SERVICE_UNAVAILABLE"
	case http.StatusBadGateway:
		return "UPSTREAM_ERROR"
	default:
		return "INTERNAL_ERROR"
	}
}

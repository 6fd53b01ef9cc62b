package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/lovevibesai/Love-Vibes-sub001/internal/pkg/validate"
	httperrors "github.com/lovevibesai/Love-Vibes-sub001/internal/transport/http/errors"
)

const maxJSONBodyBytes = 64 << 10

var errEmptyBody = errors.New("request body is empty")

func decodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxJSONBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return fmt.Errorf("decode json body: %w", err)
	}
	return nil
}

// validateRequest writes a 400 and returns false when req fails its validate tags.
func validateRequest(w http.ResponseWriter, req any) bool {
	fields := validate.Struct(req)
	if len(fields) == 0 {
		return true
	}
	httperrors.Write(w, http.StatusBadRequest, httperrors.ValidationError{
		Code:    "VALIDATION_ERROR",
		Message: validate.Summary(fields),
		Fields:  fields,
	})
	return false
}

// writeServiceError maps err by kind. Internals are never echoed; message is
// the public text for 5xx responses.
func writeServiceError(w http.ResponseWriter, err error, upstreamStatus int, message string) {
	status := httperrors.StatusFor(err, upstreamStatus)
	public := message
	switch status {
	case http.StatusBadRequest, http.StatusConflict:
		public = publicMessage(err)
	case http.StatusNotFound:
		public = "resource not found"
	case http.StatusUnauthorized:
		public = "authentication failed"
	}
	httperrors.Write(w, status, httperrors.APIError{
		Code:    httperrors.CodeFor(status),
		Message: public,
	})
}

// publicMessage drops the kind prefix from service errors such as
// "invalid input: cannot swipe on yourself".
func publicMessage(err error) string {
	msg := err.Error()
	if idx := strings.Index(msg, ": "); idx >= 0 {
		return msg[idx+2:]
	}
	return msg
}

func writeBadRequest(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusBadRequest, httperrors.APIError{Code: code, Message: message})
}

func writeUnauthorized(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusUnauthorized, httperrors.APIError{Code: code, Message: message})
}

func writeUnavailable(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusServiceUnavailable, httperrors.APIError{Code: code, Message: message})
}

func parseIntOrDefault(raw string, fallback int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

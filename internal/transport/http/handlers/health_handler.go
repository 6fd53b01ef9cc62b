package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	httperrors "github.com/lovevibesai/Love-Vibes-sub001/internal/transport/http/errors"
)

// Check reports whether one backing dependency is reachable.
type Check func(ctx context.Context) error

type HealthHandler struct {
	checks map[string]Check
	logger *zap.Logger
}

func NewHealthHandler(checks map[string]Check, logger *zap.Logger) *HealthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthHandler{checks: checks, logger: logger}
}

func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := make(map[string]string, len(h.checks))
	ok := true
	for name, check := range h.checks {
		if check == nil {
			continue
		}
		if err := check(ctx); err != nil {
			h.logger.Warn("health check failed", zap.String("check", name), zap.Error(err))
			status[name] = "down"
			ok = false
			continue
		}
		status[name] = "up"
	}

	code := http.StatusOK
	if !ok {
		code = http.StatusServiceUnavailable
	}
	httperrors.Write(w, code, struct {
		OK     bool              `json:"ok"`
		Checks map[string]string `json:"checks,omitempty"`
	}{
		OK:     ok,
		Checks: status,
	})
}

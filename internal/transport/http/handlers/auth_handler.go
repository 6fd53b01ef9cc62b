package handlers

import (
	"context"
	"net/http"
	"time"

	authsvc "github.com/lovevibesai/Love-Vibes-sub001/internal/services/auth"
	"github.com/lovevibesai/Love-Vibes-sub001/internal/transport/http/dto"
	httperrors "github.com/lovevibesai/Love-Vibes-sub001/internal/transport/http/errors"
)

type SessionService interface {
	Refresh(ctx context.Context, refreshToken string) (authsvc.AuthResult, error)
	Logout(ctx context.Context, sid string) error
	LogoutAll(ctx context.Context, userID string) error
}

type AuthHandler struct {
	service SessionService
	now     func() time.Time
}

func NewAuthHandler(service SessionService) *AuthHandler {
	return &AuthHandler{service: service, now: time.Now}
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeUnavailable(w, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
		return
	}

	var req dto.RefreshRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}
	if !validateRequest(w, req) {
		return
	}

	res, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeServiceError(w, err, http.StatusInternalServerError, "internal server error")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.AuthTokensResponse{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		ExpiresInSec: max(0, int64(res.AccessExpires.Sub(h.now()).Seconds())),
		User: dto.AuthUserResponse{
			ID:   res.UserID,
			Role: res.Role,
		},
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeUnavailable(w, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
		return
	}
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	if err := h.service.Logout(r.Context(), identity.SID); err != nil {
		writeServiceError(w, err, http.StatusInternalServerError, "internal server error")
		return
	}
	httperrors.Write(w, http.StatusOK, dto.OKResponse{OK: true})
}

func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeUnavailable(w, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
		return
	}
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	if err := h.service.LogoutAll(r.Context(), identity.UserID); err != nil {
		writeServiceError(w, err, http.StatusInternalServerError, "internal server error")
		return
	}
	httperrors.Write(w, http.StatusOK, dto.OKResponse{OK: true})
}

package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	authsvc "github.com/lovevibesai/Love-Vibes-sub001/internal/services/auth"
	swipesvc "github.com/lovevibesai/Love-Vibes-sub001/internal/services/swipes"
	"github.com/lovevibesai/Love-Vibes-sub001/internal/transport/http/dto"
	httperrors "github.com/lovevibesai/Love-Vibes-sub001/internal/transport/http/errors"
)

type SwipeRecorder interface {
	RecordSwipe(ctx context.Context, actorID, targetID, action string) (swipesvc.SwipeResult, error)
	Cooldown(ctx context.Context, userID string) (int64, error)
}

type SwipeHandler struct {
	service SwipeRecorder
}

func NewSwipeHandler(service SwipeRecorder) *SwipeHandler {
	return &SwipeHandler{service: service}
}

func (h *SwipeHandler) Handle(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeUnavailable(w, "SWIPE_SERVICE_UNAVAILABLE", "swipe service is unavailable")
		return
	}

	var req dto.SwipeRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if strings.TrimSpace(req.TargetID) == "" {
		req.TargetID = strings.TrimSpace(r.URL.Query().Get("target_id"))
	}
	if strings.TrimSpace(req.Action) == "" {
		req.Action = strings.TrimSpace(r.URL.Query().Get("action"))
	}
	if !validateRequest(w, req) {
		return
	}

	result, err := h.service.RecordSwipe(r.Context(), identity.UserID, req.TargetID, req.Action)
	if err != nil {
		var tooFast swipesvc.TooFastError
		if errors.As(err, &tooFast) {
			w.Header().Set("Retry-After", strconv.FormatInt(tooFast.RetryAfterSec, 10))
			httperrors.Write(w, http.StatusTooManyRequests, httperrors.RateLimitError{
				Code:          "TOO_FAST",
				Message:       "too many swipes, slow down",
				RetryAfterSec: tooFast.RetryAfterSec,
			})
			return
		}
		writeServiceError(w, err, http.StatusServiceUnavailable, "failed to record swipe")
		return
	}

	resp := dto.SwipeResponse{Swiped: true}
	if result.Matched && result.Match != nil {
		resp.Match = &dto.SwipeMatchResponse{
			MatchID:    result.Match.MatchID,
			IsMatch:    true,
			ChatRoomID: result.Match.ChatRoomHandle,
		}
	}
	httperrors.Write(w, http.StatusOK, resp)
}

func (h *SwipeHandler) Cooldown(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeUnavailable(w, "SWIPE_SERVICE_UNAVAILABLE", "swipe service is unavailable")
		return
	}

	retryAfter, err := h.service.Cooldown(r.Context(), identity.UserID)
	if err != nil {
		writeServiceError(w, err, http.StatusServiceUnavailable, "failed to read swipe cooldown")
		return
	}
	if retryAfter > 0 {
		w.Header().Set("Retry-After", strconv.FormatInt(retryAfter, 10))
	}

	httperrors.Write(w, http.StatusOK, dto.SwipeCooldownResponse{
		CanSwipe:      retryAfter == 0,
		RetryAfterSec: retryAfter,
	})
}

package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	authsvc "github.com/lovevibesai/Love-Vibes-sub001/internal/services/auth"
	matchessvc "github.com/lovevibesai/Love-Vibes-sub001/internal/services/matches"
	"github.com/lovevibesai/Love-Vibes-sub001/internal/transport/http/dto"
	httperrors "github.com/lovevibesai/Love-Vibes-sub001/internal/transport/http/errors"
)

type MatchReader interface {
	List(ctx context.Context, userID string, limit int) ([]matchessvc.Item, error)
	Get(ctx context.Context, userID, matchID string) (matchessvc.Item, error)
}

type MatchesHandler struct {
	service MatchReader
}

func NewMatchesHandler(service MatchReader) *MatchesHandler {
	return &MatchesHandler{service: service}
}

func (h *MatchesHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeUnavailable(w, "MATCHES_SERVICE_UNAVAILABLE", "matches service is unavailable")
		return
	}

	items, err := h.service.List(r.Context(), identity.UserID, parseIntOrDefault(r.URL.Query().Get("limit"), 0))
	if err != nil {
		writeServiceError(w, err, http.StatusInternalServerError, "failed to load matches")
		return
	}

	out := make([]dto.MatchItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toMatchItemResponse(item))
	}
	httperrors.Write(w, http.StatusOK, dto.MatchesResponse{Items: out})
}

func (h *MatchesHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeUnavailable(w, "MATCHES_SERVICE_UNAVAILABLE", "matches service is unavailable")
		return
	}

	item, err := h.service.Get(r.Context(), identity.UserID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err, http.StatusInternalServerError, "failed to load match")
		return
	}
	httperrors.Write(w, http.StatusOK, toMatchItemResponse(item))
}

func toMatchItemResponse(item matchessvc.Item) dto.MatchItemResponse {
	return dto.MatchItemResponse{
		MatchID:    item.MatchID,
		PeerID:     item.PeerID,
		ChatRoomID: item.ChatRoomHandle,
		CreatedAt:  item.CreatedAt,
	}
}

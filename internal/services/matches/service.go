package matches

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lovevibesai/Love-Vibes-sub001/internal/domain/apperr"
	"github.com/lovevibesai/Love-Vibes-sub001/internal/domain/model"
	pgrepo "github.com/lovevibesai/Love-Vibes-sub001/internal/repo/postgres"
)

const (
	defaultLimit = 50
	maxLimit     = 100
)

var (
	ErrValidation    = fmt.Errorf("%w: user id is required", apperr.ErrInvalidInput)
	ErrMatchNotFound = fmt.Errorf("%w: match", apperr.ErrNotFound)
)

type Store interface {
	ListForUser(ctx context.Context, userID string, limit int) ([]pgrepo.MatchRecord, error)
	GetByID(ctx context.Context, matchID string) (pgrepo.MatchRecord, error)
}

type Item struct {
	MatchID        string
	PeerID         string
	ChatRoomHandle string
	CreatedAt      time.Time
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) List(ctx context.Context, userID string, limit int) ([]Item, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrValidation
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	records, err := s.store.ListForUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list matches: %w", apperr.ErrUpstream, err)
	}

	items := make([]Item, 0, len(records))
	for _, rec := range records {
		items = append(items, toItem(rec, userID))
	}
	return items, nil
}

// Get returns the match only to its participants; anyone else sees not found.
func (s *Service) Get(ctx context.Context, userID, matchID string) (Item, error) {
	userID = strings.TrimSpace(userID)
	matchID = strings.TrimSpace(matchID)
	if userID == "" || matchID == "" {
		return Item{}, ErrValidation
	}

	rec, err := s.store.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrMatchNotFound) {
			return Item{}, ErrMatchNotFound
		}
		return Item{}, fmt.Errorf("%w: get match: %w", apperr.ErrUpstream, err)
	}

	item := toItem(rec, userID)
	if item.PeerID == "" {
		return Item{}, ErrMatchNotFound
	}
	return item, nil
}

func toItem(rec pgrepo.MatchRecord, viewerID string) Item {
	m := model.Match{
		ID:             rec.ID,
		UserAID:        rec.UserAID,
		UserBID:        rec.UserBID,
		ChatRoomHandle: rec.ChatRoomHandle,
		CreatedAt:      rec.CreatedAt,
	}
	return Item{
		MatchID:        m.ID,
		PeerID:         m.PeerOf(viewerID),
		ChatRoomHandle: m.ChatRoomHandle,
		CreatedAt:      m.CreatedAt,
	}
}

package swipes

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/lovevibesai/Love-Vibes-sub001/internal/domain/apperr"
	"github.com/lovevibesai/Love-Vibes-sub001/internal/domain/enums"
	pgrepo "github.com/lovevibesai/Love-Vibes-sub001/internal/repo/postgres"
)

var (
	ErrValidation        = fmt.Errorf("%w: actor and target are required", apperr.ErrInvalidInput)
	ErrSelfSwipe         = fmt.Errorf("%w: cannot swipe on yourself", apperr.ErrInvalidInput)
	ErrUnsupportedAction = fmt.Errorf("%w: unsupported swipe action", apperr.ErrInvalidInput)
	ErrNotConfigured     = fmt.Errorf("%w: swipe dependencies are not configured", apperr.ErrMisconfigured)
)

type TooFastError struct {
	RetryAfterSec int64
}

func (e TooFastError) Error() string {
	return "swiping too fast, retry after " + strconv.FormatInt(e.RetryAfterSec, 10) + "s"
}

type TxRunner interface {
	WithTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error
}

type SwipeStore interface {
	LockPair(ctx context.Context, tx pgx.Tx, userA, userB string) error
	Upsert(ctx context.Context, tx pgx.Tx, actorID, targetID, action string, now time.Time) (pgrepo.SwipeRecord, error)
	HasLike(ctx context.Context, tx pgx.Tx, actorID, targetID string) (bool, error)
}

type MatchStore interface {
	CreateOrGet(ctx context.Context, tx pgx.Tx, userID, targetID, chatRoomHandle string, now time.Time) (pgrepo.MatchRecord, bool, error)
}

type ChatRoomAllocator interface {
	Allocate(ctx context.Context, userA, userB string) (string, error)
}

type RateLimiter interface {
	AllowSwipe(ctx context.Context, userID string) (int64, bool, error)
	RetryAfter(ctx context.Context, userID string) (int64, error)
}

type MatchView struct {
	MatchID        string
	ChatRoomHandle string
	PeerID         string
	CreatedAt      time.Time
}

type SwipeResult struct {
	Matched bool
	Match   *MatchView
	// Created is true only for the swipe that produced the match row.
	Created bool
}

type Service struct {
	tx          TxRunner
	swipeStore  SwipeStore
	matchStore  MatchStore
	chatRooms   ChatRoomAllocator
	rateLimiter RateLimiter
	logger      *zap.Logger
	now         func() time.Time
}

type Dependencies struct {
	Tx          TxRunner
	SwipeStore  SwipeStore
	MatchStore  MatchStore
	ChatRooms   ChatRoomAllocator
	RateLimiter RateLimiter
	Logger      *zap.Logger
}

func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		tx:          deps.Tx,
		swipeStore:  deps.SwipeStore,
		matchStore:  deps.MatchStore,
		chatRooms:   deps.ChatRooms,
		rateLimiter: deps.RateLimiter,
		logger:      logger,
		now:         time.Now,
	}
}

// Cooldown reports how many seconds userID must wait before the next swipe is
// accepted. It does not consume a slot and reads 0 when the limiter is down.
func (s *Service) Cooldown(ctx context.Context, userID string) (int64, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, ErrValidation
	}
	if s.rateLimiter == nil {
		return 0, nil
	}

	retryAfter, err := s.rateLimiter.RetryAfter(ctx, userID)
	if err != nil {
		s.logger.Warn("swipe rate limiter unavailable", zap.Error(err), zap.String("actor_id", userID))
		return 0, nil
	}
	return retryAfter, nil
}

// RecordSwipe stores actorID's decision on targetID and creates the pair's
// match when both latest decisions are LIKE. Repeating a swipe returns the
// existing match instead of creating another.
func (s *Service) RecordSwipe(ctx context.Context, actorID, targetID, action string) (SwipeResult, error) {
	actorID = strings.TrimSpace(actorID)
	targetID = strings.TrimSpace(targetID)
	if actorID == "" || targetID == "" {
		return SwipeResult{}, ErrValidation
	}
	if actorID == targetID {
		return SwipeResult{}, ErrSelfSwipe
	}

	normalized, err := NormalizeAction(action)
	if err != nil {
		return SwipeResult{}, err
	}

	if s.tx == nil || s.swipeStore == nil || s.matchStore == nil || s.chatRooms == nil {
		return SwipeResult{}, ErrNotConfigured
	}

	if s.rateLimiter != nil {
		retryAfter, allowed, err := s.rateLimiter.AllowSwipe(ctx, actorID)
		switch {
		case err != nil:
			s.logger.Warn("swipe rate limiter unavailable", zap.Error(err), zap.String("actor_id", actorID))
		case !allowed:
			return SwipeResult{}, TooFastError{RetryAfterSec: retryAfter}
		}
	}

	now := s.now().UTC()
	var result SwipeResult
	err = s.tx.WithTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		result = SwipeResult{}

		if err := s.swipeStore.LockPair(txCtx, tx, actorID, targetID); err != nil {
			return err
		}
		if _, err := s.swipeStore.Upsert(txCtx, tx, actorID, targetID, string(normalized), now); err != nil {
			return err
		}
		if normalized == enums.SwipeActionPass {
			return nil
		}

		reciprocal, err := s.swipeStore.HasLike(txCtx, tx, targetID, actorID)
		if err != nil {
			return err
		}
		if !reciprocal {
			return nil
		}

		handle, err := s.chatRooms.Allocate(txCtx, actorID, targetID)
		if err != nil {
			return fmt.Errorf("allocate chat room: %w", err)
		}

		match, created, err := s.matchStore.CreateOrGet(txCtx, tx, actorID, targetID, handle, now)
		if err != nil {
			return err
		}

		result = SwipeResult{
			Matched: true,
			Created: created,
			Match: &MatchView{
				MatchID:        match.ID,
				ChatRoomHandle: match.ChatRoomHandle,
				PeerID:         targetID,
				CreatedAt:      match.CreatedAt,
			},
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidInput) || errors.Is(err, apperr.ErrMisconfigured) {
			return SwipeResult{}, err
		}
		return SwipeResult{}, fmt.Errorf("%w: record swipe: %w", apperr.ErrUpstream, err)
	}

	if result.Created {
		s.logger.Info("match created",
			zap.String("match_id", result.Match.MatchID),
			zap.String("actor_id", actorID),
			zap.String("target_id", targetID),
		)
	}

	return result, nil
}

// NormalizeAction maps client spellings onto LIKE or PASS.
func NormalizeAction(input string) (enums.SwipeAction, error) {
	value := strings.ToUpper(strings.TrimSpace(input))
	value = strings.ReplaceAll(value, "_", "")
	switch value {
	case "LIKE", "RIGHT":
		return enums.SwipeActionLike, nil
	case "PASS", "LEFT", "DISLIKE", "NOPE":
		return enums.SwipeActionPass, nil
	default:
		return "", ErrUnsupportedAction
	}
}

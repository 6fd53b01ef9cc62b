package model

import (
	"time"

	"github.com/lovevibesai/Love-Vibes-sub001/internal/domain/enums"
)

type Swipe struct {
	ActorID  string            `json:"actor_id"`
	TargetID string            `json:"target_id"`
	Action   enums.SwipeAction `json:"action"`
	SwipedAt time.Time         `json:"swiped_at"`
}

package dto

type SwipeRequest struct {
	TargetID string `json:"target_id" validate:"notblank,max=128"`
	Action   string `json:"action" validate:"notblank,max=32"`
}

type SwipeMatchResponse struct {
	MatchID    string `json:"match_id"`
	IsMatch    bool   `json:"is_match"`
	ChatRoomID string `json:"chat_room_id"`
}

type SwipeCooldownResponse struct {
	CanSwipe      bool  `json:"can_swipe"`
	RetryAfterSec int64 `json:"retry_after_sec"`
}

type SwipeResponse struct {
	Swiped bool                `json:"swiped"`
	Match  *SwipeMatchResponse `json:"match"`
}

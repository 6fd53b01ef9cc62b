package dto

import "time"

type MatchItemResponse struct {
	MatchID    string    `json:"match_id"`
	PeerID     string    `json:"peer_id"`
	ChatRoomID string    `json:"chat_room_id"`
	CreatedAt  time.Time `json:"created_at"`
}

type MatchesResponse struct {
	Items []MatchItemResponse `json:"items"`
}

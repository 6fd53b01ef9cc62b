package model

import "time"

type Match struct {
	ID             string    `json:"id"`
	UserAID        string    `json:"user_a_id"`
	UserBID        string    `json:"user_b_id"`
	ChatRoomHandle string    `json:"chat_room_handle"`
	CreatedAt      time.Time `json:"created_at"`
}

// PeerOf returns the other participant, or "" when userID is not part of the match.
func (m Match) PeerOf(userID string) string {
	switch userID {
	case m.UserAID:
		return m.UserBID
	case m.UserBID:
		return m.UserAID
	default:
		return ""
	}
}

// CanonicalPair orders two user ids so an unordered pair has one representation.
func CanonicalPair(a, b string) (string, string) {
	if a > b {
		return b, a
	}
	return a, b
}

package auth

import (
	"fmt"
	"time"

	"github.com/lovevibesai/Love-Vibes-sub001/internal/domain/apperr"
)

var (
	ErrInvalidInput    = fmt.Errorf("%w: auth payload", apperr.ErrInvalidInput)
	ErrUnauthorized    = fmt.Errorf("%w: invalid or expired credentials", apperr.ErrUnauthenticated)
	ErrSessionNotFound = fmt.Errorf("session not found")
	ErrRefreshNotFound = fmt.Errorf("refresh token not found")
)

type SessionRecord struct {
	SID       string
	UserID    string
	Role      string
	ExpiresAt time.Time
}

type AccessClaims struct {
	UserID    string
	SID       string
	Role      string
	ExpiresAt time.Time
}

type AuthResult struct {
	AccessToken   string
	RefreshToken  string
	AccessExpires time.Time
	UserID        string
	Role          string
}

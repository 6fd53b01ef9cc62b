package dto

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"notblank"`
}

type AuthUserResponse struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

type AuthTokensResponse struct {
	AccessToken  string           `json:"access_token"`
	RefreshToken string           `json:"refresh_token"`
	ExpiresInSec int64            `json:"expires_in_sec"`
	User         AuthUserResponse `json:"user"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}

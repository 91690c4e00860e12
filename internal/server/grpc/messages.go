package grpc

import "time"

type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	// BirthDate is YYYY-MM-DD; empty means unknown.
	BirthDate string `json:"birth_date,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RevokeRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RevokeResponse struct {
	Revoked bool `json:"revoked"`
}

type RevokeAllRequest struct{}

type RevokeAllResponse struct {
	Revoked int64 `json:"revoked"`
}

// TokenResponse is returned by Register, Login and Refresh.
type TokenResponse struct {
	AccessToken          string    `json:"access_token"`
	AccessTokenExpiresAt time.Time `json:"access_token_expires_at"`
	RefreshToken         string    `json:"refresh_token"`
	TokenType            string    `json:"token_type"`
}

type MeRequest struct{}

type MeResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

type PingRequest struct{}

type PingResponse struct {
	Status string `json:"status"`
}

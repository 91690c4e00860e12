package models

import "time"

// RefreshToken is a stored refresh token. The raw token value is never kept;
// TokenHash is the only representation that can be looked up.
type RefreshToken struct {
	ID        string
	TokenHash string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
	IsRevoked bool
}

// IsActive reports whether the token can still be exchanged at now.
func (t *RefreshToken) IsActive(now time.Time) bool {
	return !t.IsRevoked && t.ExpiresAt.After(now)
}

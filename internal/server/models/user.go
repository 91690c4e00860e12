package models

import (
	"strings"
	"time"
)

// User is the account a refresh token belongs to. Only ID is referenced by
// refresh token records; the rest feeds access token claims.
type User struct {
	ID           string
	Email        string
	FirstName    string
	LastName     string
	BirthDate    time.Time
	PasswordHash string
	CreatedAt    time.Time
}

// DisplayName is "First Last" with missing parts dropped.
func (u *User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

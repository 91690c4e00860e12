package models

import (
	"testing"
	"time"
)

func TestRefreshToken_IsActive(t *testing.T) {
	now := time.Date(2025, 11, 10, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		token RefreshToken
		want  bool
	}{
		{name: "fresh", token: RefreshToken{ExpiresAt: now.Add(time.Hour)}, want: true},
		{name: "expires exactly now", token: RefreshToken{ExpiresAt: now}, want: false},
		{name: "expired", token: RefreshToken{ExpiresAt: now.Add(-time.Second)}, want: false},
		{name: "revoked", token: RefreshToken{ExpiresAt: now.Add(time.Hour), IsRevoked: true}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.token.IsActive(now); got != tt.want {
				t.Fatalf("IsActive() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUser_DisplayName(t *testing.T) {
	tests := []struct {
		user User
		want string
	}{
		{User{FirstName: "Ada", LastName: "Lovelace"}, "Ada Lovelace"},
		{User{FirstName: "Ada"}, "Ada"},
		{User{LastName: "Lovelace"}, "Lovelace"},
		{User{}, ""},
	}
	for _, tt := range tests {
		if got := tt.user.DisplayName(); got != tt.want {
			t.Fatalf("DisplayName() = %q, want %q", got, tt.want)
		}
	}
}

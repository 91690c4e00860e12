// Package refreshtokens declares the server-side repository contract for
// refresh tokens and its PostgreSQL and in-memory implementations.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/bankauth/internal/server/auth"
	"github.com/dmitrijs2005/bankauth/internal/server/models"
)

// Repository owns every mutation of refresh token records. Records are
// addressed by the hash of the raw token; the raw value only ever leaves
// Insert.
type Repository interface {
	// Insert creates a new token for userID and returns its raw value.
	// A hash collision yields common.ErrTokenCollision.
	Insert(ctx context.Context, userID string) (string, error)

	// FindActive returns the user's non-revoked, non-expired tokens, newest
	// first (created_at DESC, id DESC).
	FindActive(ctx context.Context, userID string) ([]*models.RefreshToken, error)

	// FindByRawValue hashes raw and looks the record up. Absent tokens yield
	// common.ErrorNotFound.
	FindByRawValue(ctx context.Context, raw string) (*models.RefreshToken, error)

	// Remove deletes the record. It reports false, without error, when the
	// record was already gone.
	Remove(ctx context.Context, token *models.RefreshToken) (bool, error)

	// RemoveExpiredOrRevoked deletes every revoked or expired record and
	// returns how many were removed.
	RemoveExpiredOrRevoked(ctx context.Context) (int64, error)

	// RemoveAllForUser deletes every record of userID.
	RemoveAllForUser(ctx context.Context, userID string) (int64, error)

	// LockUser serializes token issuance for userID until the surrounding
	// transaction ends.
	LockUser(ctx context.Context, userID string) error
}

// DefaultValidity is the refresh token lifetime used when Settings leaves it unset.
const DefaultValidity = 7 * 24 * time.Hour

// Settings are shared by all repository instances of one manager.
type Settings struct {
	// Validity is the refresh token lifetime; non-positive means DefaultValidity.
	Validity time.Duration
	// Now is the clock; defaults to time.Now.
	Now func() time.Time
	// Generate produces raw token values; defaults to auth.GenerateRefreshToken.
	Generate func() (string, error)
}

// WithDefaults fills unset fields.
func (s Settings) WithDefaults() Settings {
	if s.Validity <= 0 {
		s.Validity = DefaultValidity
	}
	if s.Now == nil {
		s.Now = time.Now
	}
	if s.Generate == nil {
		s.Generate = auth.GenerateRefreshToken
	}
	return s
}

func (s Settings) now() time.Time {
	return s.Now().UTC()
}

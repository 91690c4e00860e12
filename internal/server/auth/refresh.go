package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"

	"github.com/dmitrijs2005/bankauth/internal/common"
)

// RefreshTokenBytes is the amount of entropy in a refresh token (512 bits).
const RefreshTokenBytes = 64

// GenerateRefreshToken returns a new opaque refresh token: 64 random bytes,
// base64url without padding.
func GenerateRefreshToken() (string, error) {
	b, err := common.GenerateRandByteArray(RefreshTokenBytes)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// HashRefreshToken is the storage representation of a raw refresh token:
// lowercase hex SHA-256. Lookups always re-hash the presented value.
func HashRefreshToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

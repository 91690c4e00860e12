// Package auth mints and checks the credentials handed to clients: signed
// access tokens and opaque refresh tokens.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/bankauth/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the access token claim set: registered claims plus the user's
// email and display name.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Identity is what the forge needs to know about a user.
type Identity struct {
	UserID string
	Email  string
	Name   string
}

// ForgeConfig carries the signing settings.
type ForgeConfig struct {
	SecretKey string
	Issuer    string
	Audience  string
	Validity  time.Duration
}

// Forge issues and parses HS256 access tokens.
type Forge struct {
	secret   []byte
	issuer   string
	audience string
	validity time.Duration
	now      func() time.Time
}

// NewForge validates cfg and returns a Forge. A missing secret or a
// non-positive validity is a configuration error.
func NewForge(cfg ForgeConfig) (*Forge, error) {
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("%w: signing secret is empty", common.ErrConfig)
	}
	if cfg.Validity <= 0 {
		return nil, fmt.Errorf("%w: access token validity must be positive", common.ErrConfig)
	}
	return &Forge{
		secret:   []byte(cfg.SecretKey),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		validity: cfg.Validity,
		now:      time.Now,
	}, nil
}

// Issue signs a fresh access token for id and returns it with its expiry.
func (f *Forge) Issue(id Identity) (string, time.Time, error) {
	now := f.now().UTC()
	exp := now.Add(f.validity)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Email: id.Email,
		Name:  id.Name,
	}
	if f.issuer != "" {
		claims.Issuer = f.issuer
	}
	if f.audience != "" {
		claims.Audience = jwt.ClaimStrings{f.audience}
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(f.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, exp, nil
}

// Parse verifies tokenString and returns its claims. Expired tokens yield
// common.ErrTokenExpired; anything else that fails yields
// common.ErrInvalidToken.
func (f *Forge) Parse(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(f.now),
		jwt.WithExpirationRequired(),
	}
	if f.issuer != "" {
		opts = append(opts, jwt.WithIssuer(f.issuer))
	}
	if f.audience != "" {
		opts = append(opts, jwt.WithAudience(f.audience))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return f.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}

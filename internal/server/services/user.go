// Package services contains server-side business logic: the refresh token
// lifecycle (TokenService) and the account flows built on it (UserService).
package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"github.com/dmitrijs2005/bankauth/internal/common"
	"github.com/dmitrijs2005/bankauth/internal/logging"
	"github.com/dmitrijs2005/bankauth/internal/server/models"
	"github.com/dmitrijs2005/bankauth/internal/server/repositories/repomanager"
)

const minPasswordLength = 6

// CredentialVerifier checks a plaintext password against its stored hash.
type CredentialVerifier interface {
	Verify(password, stored string) bool
}

// PasswordHasher produces the stored form of a password.
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// Credentials is implemented by cryptox.Argon2.
type Credentials interface {
	PasswordHasher
	CredentialVerifier
}

// RegisterRequest is the input of Register.
type RegisterRequest struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	BirthDate time.Time
}

// UserService provides the account operations:
// - Register: create users and sign them in
// - Login: verify credentials and mint tokens
// - Refresh / Revoke: delegate to the token lifecycle
type UserService struct {
	repomanager repomanager.RepositoryManager
	tokens      *TokenService
	creds       Credentials
	dummyHash   string
	log         logging.Logger
}

// NewUserService constructs a UserService. It hashes a throwaway password up
// front so that logins for unknown emails cost as much as real ones.
func NewUserService(m repomanager.RepositoryManager, tokens *TokenService, creds Credentials, log logging.Logger) (*UserService, error) {
	if log == nil {
		log = logging.Nop{}
	}
	dummy, err := creds.Hash("dummy-password-for-timing")
	if err != nil {
		return nil, fmt.Errorf("error preparing credential verifier: %w", err)
	}
	return &UserService{
		repomanager: m,
		tokens:      tokens,
		creds:       creds,
		dummyHash:   dummy,
		log:         log.With("module", "users"),
	}, nil
}

// Register creates a user and issues its first token pair. A taken email
// yields common.ErrorAlreadyExists; bad input yields common.ErrorValidation.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*TokenPair, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}

	hash, err := s.creds.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Email:        email,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		BirthDate:    req.BirthDate,
		PasswordHash: hash,
	}

	u, err := s.repomanager.Users(s.repomanager.DB()).Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.log.Info(ctx, "user registered", "user_id", u.ID)
	return s.tokens.IssuePair(ctx, u.ID)
}

// Login verifies the credentials and returns a new TokenPair. Unknown emails
// and wrong passwords both yield common.ErrorUnauthorized.
func (s *UserService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	repo := s.repomanager.Users(s.repomanager.DB())
	user, err := repo.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.creds.Verify(password, s.dummyHash)
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	if !s.creds.Verify(password, user.PasswordHash) {
		s.log.Warn(ctx, "failed login", "user_id", user.ID)
		return nil, common.ErrorUnauthorized
	}
	return s.tokens.IssuePair(ctx, user.ID)
}

// Refresh exchanges a refresh token for a new pair.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, common.ErrInvalidToken
	}
	return s.tokens.Rotate(ctx, refreshToken)
}

// Revoke removes a refresh token. Absent tokens yield common.ErrorNotFound.
func (s *UserService) Revoke(ctx context.Context, refreshToken string) error {
	ok, err := s.tokens.Revoke(ctx, refreshToken)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrorNotFound
	}
	return nil
}

// RevokeAll signs userID out of every session.
func (s *UserService) RevokeAll(ctx context.Context, userID string) (int64, error) {
	return s.tokens.RevokeAll(ctx, userID)
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: malformed email", common.ErrorValidation)
	}
	return email, nil
}

// validatePassword requires a minimum length plus an upper case letter, a
// lower case letter, a digit and a symbol.
func validatePassword(p string) error {
	if len(p) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", common.ErrorValidation, minPasswordLength)
	}
	var upper, lower, digit, symbol bool
	for _, r := range p {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case !unicode.IsLetter(r) && !unicode.IsSpace(r):
			symbol = true
		}
	}
	if !(upper && lower && digit && symbol) {
		return fmt.Errorf("%w: password needs upper and lower case letters, a digit and a symbol", common.ErrorValidation)
	}
	return nil
}

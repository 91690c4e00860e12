// Package common defines shared constants and sentinel errors used across
// the storage, service and transport layers of bankauth. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// ErrTokenCollision is returned when a freshly generated refresh token
	// hashes to a value that is already stored.
	ErrTokenCollision = errors.New("refresh token collision")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// Auth errors (invalid, unknown, revoked or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// ErrSessionTerminated wraps failures that happen after a refresh token
	// has already been consumed. The client has to authenticate again.
	ErrSessionTerminated = errors.New("session terminated")

	// ErrConfig is returned for invalid or incomplete configuration.
	ErrConfig = errors.New("invalid config")
)

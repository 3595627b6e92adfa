package session

import "errors"

var (
	// ErrInvalidToken is returned when a bearer token fails verification.
	ErrInvalidToken = errors.New("invalid token")

	// ErrSessionNotFound is returned when no session matches the lookup.
	ErrSessionNotFound = errors.New("session not found")

	// ErrTokenInUse is returned by Store.Create when a session already exists for the token ID.
	ErrTokenInUse = errors.New("session already exists for token")

	// ErrIssuerDisabled is returned when token re-issue is requested without a signing key.
	ErrIssuerDisabled = errors.New("token issuer not configured")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid config")
)

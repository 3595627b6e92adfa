package handshake

import "errors"

var (
	// ErrSessionNotFound is returned when no active, unexpired session matches the caller.
	ErrSessionNotFound = errors.New("handshake session not found")

	// ErrHandshakeIncomplete is returned when a server response is requested before the
	// client public key was stored.
	ErrHandshakeIncomplete = errors.New("handshake not completed")

	// ErrRateLimited is returned when a user initiates sessions too quickly.
	ErrRateLimited = errors.New("handshake initiation rate limited")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid handshake config")
)

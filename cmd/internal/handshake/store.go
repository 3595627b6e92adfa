package handshake

import (
	"context"
	"time"
)

// State is the lifecycle state of a handshake session at a given instant.
type State string

const (
	// StateInitiated means the server key pair exists and no client key was stored yet.
	StateInitiated State = "initiated"
	// StateCompleted means the client public key is stored; both directions can be encrypted.
	StateCompleted State = "completed"
	// StateInvalidated means the session was deactivated (explicitly or by supersession).
	StateInvalidated State = "invalidated"
	// StateExpired means the session outlived its TTL.
	StateExpired State = "expired"
)

// Session mirrors the vault.handshake_sessions row.
type Session struct {
	ID     string
	UserID string

	// ServerPublicKey is PEM (SubjectPublicKeyInfo).
	ServerPublicKey string
	// WrappedServerPrivateKey is the output of rsacrypto.KeyWrapper.Wrap.
	WrappedServerPrivateKey string
	// ClientPublicKey is nil until the handshake completes.
	ClientPublicKey *string

	CreatedAt time.Time
	ExpiresAt time.Time
	IsActive  bool
}

// State derives the lifecycle state from the stored fields.
func (s Session) State(now time.Time) State {
	switch {
	case !s.IsActive:
		return StateInvalidated
	case !now.Before(s.ExpiresAt):
		return StateExpired
	case s.ClientPublicKey == nil:
		return StateInitiated
	default:
		return StateCompleted
	}
}

// Usable reports whether the session may authorize RSA operations at now.
func (s Session) Usable(now time.Time) bool {
	st := s.State(now)
	return st == StateInitiated || st == StateCompleted
}

// Store abstracts persistence for handshake sessions.
//
// Every mutating method must be a single atomic write; callers never read-then-write.
type Store interface {
	// Supersede deactivates every active session of s.UserID and inserts s, atomically.
	// It returns how many sessions were deactivated.
	Supersede(ctx context.Context, s Session) (deactivated int, err error)

	// Get loads a session by ID. Returns ErrSessionNotFound when absent.
	Get(ctx context.Context, sessionID string) (Session, error)

	// Complete stores clientPublicKey if the session is active, unexpired at now and not
	// yet completed. It reports whether the row was updated.
	Complete(ctx context.Context, now time.Time, sessionID string, clientPublicKey string) (bool, error)

	// Deactivate clears is_active (idempotent).
	Deactivate(ctx context.Context, sessionID string) error

	// DeleteExpired removes sessions whose expires_at is at or before now.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

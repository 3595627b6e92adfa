package session

import (
	"context"
	"time"
)

// RevocationReason records why a session stopped being usable.
type RevocationReason string

const (
	// ReasonLogout is a user revoking one device.
	ReasonLogout RevocationReason = "logout"
	// ReasonLogoutOthers is a user signing out every device except the current one.
	ReasonLogoutOthers RevocationReason = "logout_others"
	// ReasonLogoutAll is a user signing out everywhere.
	ReasonLogoutAll RevocationReason = "logout_all"
	// ReasonInactivity is the inactivity timeout firing.
	ReasonInactivity RevocationReason = "inactivity"
	// ReasonExpired is the absolute lifetime running out.
	ReasonExpired RevocationReason = "expired"
)

// Session mirrors the vault.user_sessions row.
type Session struct {
	ID      string
	UserID  string
	TokenID string

	IPAddress       string
	Browser         string
	OperatingSystem string
	DeviceType      string
	UserAgent       string
	Location        *string

	CreatedAt      time.Time
	LastActivityAt time.Time
	ExpiresAt      time.Time

	IsActive         bool
	IsRevoked        bool
	RevokedAt        *time.Time
	RevocationReason *RevocationReason
}

// Store abstracts persistence for user sessions.
//
// Mutations are single conditional writes; callers never read-then-write. Methods that
// take a cutoff treat last_activity_at <= cutoff as idle.
type Store interface {
	// Create inserts s. Returns ErrTokenInUse if a session already exists for s.TokenID.
	Create(ctx context.Context, s Session) error

	// GetByID loads a session. Returns ErrSessionNotFound when absent.
	GetByID(ctx context.Context, sessionID string) (Session, error)

	// GetByTokenID loads the session bound to a token ID.
	GetByTokenID(ctx context.Context, tokenID string) (Session, error)

	// ListActive returns the user's active, non-revoked sessions that expire after now,
	// most recently active first.
	ListActive(ctx context.Context, now time.Time, userID string) ([]Session, error)

	// Touch sets last_activity_at = now if the session is still usable at now given cutoff.
	Touch(ctx context.Context, now, cutoff time.Time, sessionID string) (bool, error)

	// Expire deactivates an active session past its absolute expiry without revoking it.
	Expire(ctx context.Context, now time.Time, sessionID string) (bool, error)

	// Revoke deactivates and revokes an active, non-revoked session.
	Revoke(ctx context.Context, now time.Time, sessionID string, reason RevocationReason) (bool, error)

	// RevokeUser revokes every active session of userID except exceptID (may be empty).
	RevokeUser(ctx context.Context, now time.Time, userID, exceptID string, reason RevocationReason) (int, error)

	// SweepExpired deactivates and revokes every active session that is past its expiry
	// or idle since cutoff. Only sessions still active are counted.
	SweepExpired(ctx context.Context, now, cutoff time.Time) (int, error)
}

package session

import "time"

// Status is the computed lifecycle state of a session.
type Status string

const (
	StatusActive  Status = "active"
	StatusRevoked Status = "revoked"
	StatusExpired Status = "expired"
	StatusIdle    Status = "idle"
	StatusUnknown Status = "unknown"
)

// State is the tagged result of Evaluate.
type State struct {
	Status Status
	// Reason and At are set for StatusRevoked when the row recorded them.
	Reason RevocationReason
	At     time.Time
}

// Usable reports whether the session may serve requests.
func (s State) Usable() bool { return s.Status == StatusActive }

// Evaluate computes the session state at now.
//
// Precedence: a stored terminal state wins, then the absolute expiry, then inactivity.
// A session is idle once now - LastActivityAt reaches inactivity.
func Evaluate(s Session, now time.Time, inactivity time.Duration) State {
	if s.IsRevoked {
		st := State{Status: StatusRevoked}
		if s.RevocationReason != nil {
			st.Reason = *s.RevocationReason
		}
		if s.RevokedAt != nil {
			st.At = *s.RevokedAt
		}
		return st
	}
	if !s.IsActive {
		return State{Status: StatusExpired}
	}
	if !now.Before(s.ExpiresAt) {
		return State{Status: StatusExpired}
	}
	if now.Sub(s.LastActivityAt) >= inactivity {
		return State{Status: StatusIdle}
	}
	return State{Status: StatusActive}
}

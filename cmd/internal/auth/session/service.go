package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/masterdeepak15/SecureNoteAndKeyPassVault/cmd/internal/metrics"
)

// Manager implements the user session lifecycle.
//
// It never caches sessions. Every decision is made by Evaluate over a fresh read and
// every mutation is a conditional store write, so concurrent heartbeats and revocations
// cannot resurrect a revoked session.
type Manager struct {
	cfg        Config
	store      Store
	classifier DeviceClassifier
	log        *slog.Logger
}

// ActiveSession is a listing entry.
type ActiveSession struct {
	Session
	IsCurrentSession bool
}

// Heartbeat is the outcome of UpdateActivity.
type Heartbeat struct {
	Valid          bool
	State          State
	LastActivityAt time.Time
	ExpiresAt      time.Time
}

// NewManager constructs a Manager. A nil classifier selects UserAgentClassifier.
func NewManager(cfg Config, store Store, classifier DeviceClassifier, log *slog.Logger) *Manager {
	if classifier == nil {
		classifier = UserAgentClassifier{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Manager{cfg: cfg, store: store, classifier: classifier, log: log}
}

// Config returns the manager's configuration.
func (m *Manager) Config() Config { return m.cfg }

func (m *Manager) cutoff(now time.Time) time.Time {
	return now.Add(-m.cfg.InactivityTimeout)
}

// Evaluate computes s's state with the configured inactivity timeout.
func (m *Manager) Evaluate(s Session, now time.Time) State {
	return Evaluate(s, now, m.cfg.InactivityTimeout)
}

// CreateSession records a new device session for tokenID.
func (m *Manager) CreateSession(ctx context.Context, now time.Time, userID, tokenID, ip, userAgent string) (Session, error) {
	dev := m.classifier.Classify(userAgent)
	s := Session{
		ID:              ulid.Make().String(),
		UserID:          userID,
		TokenID:         tokenID,
		IPAddress:       ip,
		Browser:         dev.Browser,
		OperatingSystem: dev.OperatingSystem,
		DeviceType:      dev.DeviceType,
		UserAgent:       userAgent,
		CreatedAt:       now,
		LastActivityAt:  now,
		ExpiresAt:       now.Add(m.cfg.AbsoluteTTL),
		IsActive:        true,
	}
	if err := m.store.Create(ctx, s); err != nil {
		return Session{}, err
	}
	m.log.Info("session.create", "user_id", userID, "session_id", s.ID, "device", dev.DeviceType)
	return s, nil
}

// EnsureSession returns the session bound to claims.TokenID, creating it on first use.
// created reports whether this call created it.
func (m *Manager) EnsureSession(ctx context.Context, now time.Time, claims Claims, ip, userAgent string) (s Session, created bool, err error) {
	s, err = m.store.GetByTokenID(ctx, claims.TokenID)
	if err == nil {
		if s.UserID != claims.UserID {
			return Session{}, false, ErrInvalidToken
		}
		return s, false, nil
	}
	if !errors.Is(err, ErrSessionNotFound) {
		return Session{}, false, err
	}

	s, err = m.CreateSession(ctx, now, claims.UserID, claims.TokenID, ip, userAgent)
	if errors.Is(err, ErrTokenInUse) {
		// Lost the race against a concurrent first request.
		s, err = m.store.GetByTokenID(ctx, claims.TokenID)
		if err != nil {
			return Session{}, false, err
		}
		if s.UserID != claims.UserID {
			return Session{}, false, ErrInvalidToken
		}
		return s, false, nil
	}
	if err != nil {
		return Session{}, false, err
	}
	return s, true, nil
}

// UpdateActivity is the heartbeat. It bumps LastActivityAt for a usable session and
// otherwise records why the session ended.
//
// Unknown, foreign and already-ended sessions are reported invalid without mutation.
// A session past its absolute expiry is deactivated; an idle one is revoked with
// ReasonInactivity. Absolute expiry is checked first.
func (m *Manager) UpdateActivity(ctx context.Context, now time.Time, sessionID, userID string) (Heartbeat, error) {
	s, err := m.store.GetByID(ctx, sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		metrics.HeartbeatsTotal.WithLabelValues(string(StatusUnknown)).Inc()
		return Heartbeat{Valid: false, State: State{Status: StatusUnknown}, LastActivityAt: now, ExpiresAt: now}, nil
	}
	if err != nil {
		return Heartbeat{}, err
	}
	if s.UserID != userID {
		metrics.HeartbeatsTotal.WithLabelValues(string(StatusUnknown)).Inc()
		return Heartbeat{Valid: false, State: State{Status: StatusUnknown}, LastActivityAt: now, ExpiresAt: now}, nil
	}

	st := m.Evaluate(s, now)
	hb := Heartbeat{State: st, LastActivityAt: s.LastActivityAt, ExpiresAt: s.ExpiresAt}

	switch {
	case !s.IsActive || s.IsRevoked:
		// terminal already; nothing to write

	case st.Status == StatusExpired:
		if _, err := m.store.Expire(ctx, now, s.ID); err != nil {
			return Heartbeat{}, err
		}
		m.log.Info("session.expire", "user_id", userID, "session_id", s.ID)

	case st.Status == StatusIdle:
		revoked, err := m.store.Revoke(ctx, now, s.ID, ReasonInactivity)
		if err != nil {
			return Heartbeat{}, err
		}
		if revoked {
			metrics.SessionsRevoked.WithLabelValues(string(ReasonInactivity)).Inc()
			hb.State = State{Status: StatusRevoked, Reason: ReasonInactivity, At: now}
		}
		m.log.Info("session.revoke", "user_id", userID, "session_id", s.ID, "reason", ReasonInactivity)

	default:
		touched, err := m.store.Touch(ctx, now, m.cutoff(now), s.ID)
		if err != nil {
			return Heartbeat{}, err
		}
		if touched {
			hb.Valid = true
			hb.LastActivityAt = now
		} else {
			// Revoked between read and write; report what the store holds now.
			if cur, err := m.store.GetByID(ctx, s.ID); err == nil {
				hb.State = m.Evaluate(cur, now)
				hb.LastActivityAt = cur.LastActivityAt
			}
		}
	}

	metrics.HeartbeatsTotal.WithLabelValues(string(hb.State.Status)).Inc()
	return hb, nil
}

// GetActiveSessions lists the user's usable sessions, most recently active first.
func (m *Manager) GetActiveSessions(ctx context.Context, now time.Time, userID, currentSessionID string) ([]ActiveSession, error) {
	rows, err := m.store.ListActive(ctx, now, userID)
	if err != nil {
		return nil, err
	}

	out := make([]ActiveSession, 0, len(rows))
	for _, s := range rows {
		if !m.Evaluate(s, now).Usable() {
			continue
		}
		out = append(out, ActiveSession{Session: s, IsCurrentSession: s.ID == currentSessionID})
	}
	return out, nil
}

// RevokeSession revokes one of the user's sessions. It returns false when the session
// does not exist or belongs to another user; revoking an ended session is a no-op true.
func (m *Manager) RevokeSession(ctx context.Context, now time.Time, sessionID, userID string) (bool, error) {
	s, err := m.store.GetByID(ctx, sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if s.UserID != userID {
		return false, nil
	}

	revoked, err := m.store.Revoke(ctx, now, sessionID, ReasonLogout)
	if err != nil {
		return false, err
	}
	if revoked {
		metrics.SessionsRevoked.WithLabelValues(string(ReasonLogout)).Inc()
		m.log.Info("session.revoke", "user_id", userID, "session_id", sessionID, "reason", ReasonLogout)
	}
	return true, nil
}

// RevokeAllOtherSessions revokes every active session of the user except currentSessionID.
func (m *Manager) RevokeAllOtherSessions(ctx context.Context, now time.Time, userID, currentSessionID string) (int, error) {
	n, err := m.store.RevokeUser(ctx, now, userID, currentSessionID, ReasonLogoutOthers)
	if err != nil {
		return 0, err
	}
	metrics.SessionsRevoked.WithLabelValues(string(ReasonLogoutOthers)).Add(float64(n))
	m.log.Info("session.revoke_others", "user_id", userID, "count", n)
	return n, nil
}

// RevokeAllSessions revokes every active session of the user.
func (m *Manager) RevokeAllSessions(ctx context.Context, now time.Time, userID string) (int, error) {
	n, err := m.store.RevokeUser(ctx, now, userID, "", ReasonLogoutAll)
	if err != nil {
		return 0, err
	}
	metrics.SessionsRevoked.WithLabelValues(string(ReasonLogoutAll)).Add(float64(n))
	m.log.Info("session.revoke_all", "user_id", userID, "count", n)
	return n, nil
}

// IsSessionValid applies the validity predicate without mutating anything.
func (m *Manager) IsSessionValid(ctx context.Context, now time.Time, sessionID, userID string) (bool, error) {
	s, err := m.store.GetByID(ctx, sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if s.UserID != userID {
		return false, nil
	}
	return m.Evaluate(s, now).Usable(), nil
}

// CleanupExpiredSessions deactivates and revokes every active session that is past its
// absolute expiry or idle. Running it twice reclaims nothing the second time.
func (m *Manager) CleanupExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	return m.store.SweepExpired(ctx, now, m.cutoff(now))
}

// GetSessionByTokenID loads the session bound to a bearer token.
func (m *Manager) GetSessionByTokenID(ctx context.Context, tokenID string) (Session, error) {
	return m.store.GetByTokenID(ctx, tokenID)
}

// Name identifies this manager to the cleanup scheduler.
func (m *Manager) Name() string { return "user_sessions" }

// Sweep adapts CleanupExpiredSessions to the cleanup scheduler.
func (m *Manager) Sweep(ctx context.Context, now time.Time) (int, error) {
	return m.CleanupExpiredSessions(ctx, now)
}

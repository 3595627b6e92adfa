package session

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryStore is a dev-only fallback when DB is not configured.
type InMemoryStore struct {
	mu      sync.Mutex
	byID    map[string]*Session
	byToken map[string]string
}

// NewInMemoryStore constructs an empty InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:    make(map[string]*Session),
		byToken: make(map[string]string),
	}
}

func (m *InMemoryStore) Create(ctx context.Context, s Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byToken[s.TokenID]; ok {
		return ErrTokenInUse
	}
	c := cloneSession(s)
	m.byID[s.ID] = &c
	m.byToken[s.TokenID] = s.ID
	return nil
}

func (m *InMemoryStore) GetByID(ctx context.Context, sessionID string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.byID[sessionID]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return cloneSession(*s), nil
}

func (m *InMemoryStore) GetByTokenID(ctx context.Context, tokenID string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.byToken[tokenID]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return cloneSession(*m.byID[id]), nil
}

func (m *InMemoryStore) ListActive(ctx context.Context, now time.Time, userID string) ([]Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	out := make([]Session, 0, 4)
	for _, s := range m.byID {
		if s.UserID == userID && s.IsActive && !s.IsRevoked && s.ExpiresAt.After(now) {
			out = append(out, cloneSession(*s))
		}
	}
	m.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].LastActivityAt.Equal(out[j].LastActivityAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].LastActivityAt.After(out[j].LastActivityAt)
	})
	return out, nil
}

func (m *InMemoryStore) Touch(ctx context.Context, now, cutoff time.Time, sessionID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.byID[sessionID]
	if !ok || !s.IsActive || s.IsRevoked || !s.ExpiresAt.After(now) || !s.LastActivityAt.After(cutoff) {
		return false, nil
	}
	s.LastActivityAt = now
	return true, nil
}

func (m *InMemoryStore) Expire(ctx context.Context, now time.Time, sessionID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.byID[sessionID]
	if !ok || !s.IsActive || s.ExpiresAt.After(now) {
		return false, nil
	}
	s.IsActive = false
	r := ReasonExpired
	s.RevocationReason = &r
	return true, nil
}

func (m *InMemoryStore) Revoke(ctx context.Context, now time.Time, sessionID string, reason RevocationReason) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.byID[sessionID]
	if !ok || !s.IsActive || s.IsRevoked {
		return false, nil
	}
	revoke(s, now, reason)
	return true, nil
}

func (m *InMemoryStore) RevokeUser(ctx context.Context, now time.Time, userID, exceptID string, reason RevocationReason) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, s := range m.byID {
		if s.UserID != userID || id == exceptID || !s.IsActive || s.IsRevoked {
			continue
		}
		revoke(s, now, reason)
		n++
	}
	return n, nil
}

func (m *InMemoryStore) SweepExpired(ctx context.Context, now, cutoff time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, s := range m.byID {
		if !s.IsActive {
			continue
		}
		expired := !s.ExpiresAt.After(now)
		if !expired && s.LastActivityAt.After(cutoff) {
			continue
		}
		s.IsActive = false
		if !s.IsRevoked {
			reason := ReasonInactivity
			if expired {
				reason = ReasonExpired
			}
			revoke(s, now, reason)
		}
		n++
	}
	return n, nil
}

func revoke(s *Session, now time.Time, reason RevocationReason) {
	at := now
	r := reason
	s.IsActive = false
	s.IsRevoked = true
	s.RevokedAt = &at
	s.RevocationReason = &r
}

func cloneSession(s Session) Session {
	if s.Location != nil {
		v := *s.Location
		s.Location = &v
	}
	if s.RevokedAt != nil {
		v := *s.RevokedAt
		s.RevokedAt = &v
	}
	if s.RevocationReason != nil {
		v := *s.RevocationReason
		s.RevocationReason = &v
	}
	return s
}

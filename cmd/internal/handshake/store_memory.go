package handshake

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore is a dev-only fallback when DB is not configured.
type InMemoryStore struct {
	mu       sync.Mutex
	sessions map[string]Session
}

// NewInMemoryStore constructs an empty InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]Session)}
}

// Supersede deactivates the user's active sessions and inserts s under one lock.
func (m *InMemoryStore) Supersede(ctx context.Context, s Session) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, cur := range m.sessions {
		if cur.UserID == s.UserID && cur.IsActive {
			cur.IsActive = false
			m.sessions[id] = cur
			n++
		}
	}
	s.IsActive = true
	m.sessions[s.ID] = cloneSession(s)
	return n, nil
}

// Get loads a session by ID.
func (m *InMemoryStore) Get(ctx context.Context, sessionID string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return cloneSession(s), nil
}

// Complete stores the client key once.
func (m *InMemoryStore) Complete(ctx context.Context, now time.Time, sessionID string, clientPublicKey string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok || s.State(now) != StateInitiated {
		return false, nil
	}
	k := clientPublicKey
	s.ClientPublicKey = &k
	m.sessions[sessionID] = s
	return true, nil
}

// Deactivate clears IsActive.
func (m *InMemoryStore) Deactivate(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[sessionID]; ok && s.IsActive {
		s.IsActive = false
		m.sessions[sessionID] = s
	}
	return nil
}

// DeleteExpired removes sessions past their expiry.
func (m *InMemoryStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, s := range m.sessions {
		if !now.Before(s.ExpiresAt) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

func cloneSession(s Session) Session {
	if s.ClientPublicKey != nil {
		k := *s.ClientPublicKey
		s.ClientPublicKey = &k
	}
	return s
}

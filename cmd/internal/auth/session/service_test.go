package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func newTestManager(t *testing.T) (*Manager, *InMemoryStore) {
	t.Helper()
	store := NewInMemoryStore()
	return NewManager(DefaultConfig(), store, nil, nil), store
}

func mustCreate(t *testing.T, m *Manager, now time.Time, userID, tokenID string) Session {
	t.Helper()
	s, err := m.CreateSession(context.Background(), now, userID, tokenID, "203.0.113.7", testUA)
	require.NoError(t, err)
	return s
}

func TestCreateSession(t *testing.T) {
	m, _ := newTestManager(t)
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

	s := mustCreate(t, m, now, "user-1", "tok-1")

	assert.NotEmpty(t, s.ID)
	assert.Equal(t, now, s.CreatedAt)
	assert.Equal(t, now, s.LastActivityAt)
	assert.Equal(t, now.Add(12*time.Hour), s.ExpiresAt)
	assert.True(t, s.IsActive)
	assert.False(t, s.IsRevoked)
	assert.Equal(t, DeviceDesktop, s.DeviceType)
	assert.Contains(t, s.Browser, "Chrome")
	assert.Equal(t, "203.0.113.7", s.IPAddress)

	_, err := m.CreateSession(context.Background(), now, "user-1", "tok-1", "", "")
	require.ErrorIs(t, err, ErrTokenInUse)
}

func TestUpdateActivity_InactivityBoundary(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)
	now := time.Now().UTC()

	s := mustCreate(t, m, now, "user-1", "tok-1")

	at := now.Add(29 * time.Minute)
	hb, err := m.UpdateActivity(ctx, at, s.ID, "user-1")
	require.NoError(t, err)
	assert.True(t, hb.Valid)
	assert.Equal(t, at, hb.LastActivityAt)
	assert.Equal(t, StatusActive, hb.State.Status)

	late := at.Add(31 * time.Minute)
	hb, err = m.UpdateActivity(ctx, late, s.ID, "user-1")
	require.NoError(t, err)
	assert.False(t, hb.Valid)
	assert.Equal(t, StatusRevoked, hb.State.Status)
	assert.Equal(t, ReasonInactivity, hb.State.Reason)

	got, err := store.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, got.IsRevoked)
	assert.False(t, got.IsActive)
	require.NotNil(t, got.RevokedAt)
	assert.Equal(t, late, *got.RevokedAt)
	assert.Equal(t, at, got.LastActivityAt)
}

func TestUpdateActivity_AbsoluteExpiryWinsOverActivity(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)
	now := time.Now().UTC()

	s := mustCreate(t, m, now, "user-1", "tok-1")

	// Keep it busy right up to the cap.
	for at := now.Add(20 * time.Minute); at.Before(now.Add(12 * time.Hour)); at = at.Add(20 * time.Minute) {
		hb, err := m.UpdateActivity(ctx, at, s.ID, "user-1")
		require.NoError(t, err)
		require.True(t, hb.Valid, "at %s", at.Sub(now))
	}

	hb, err := m.UpdateActivity(ctx, now.Add(12*time.Hour+time.Minute), s.ID, "user-1")
	require.NoError(t, err)
	assert.False(t, hb.Valid)
	assert.Equal(t, StatusExpired, hb.State.Status)

	got, err := store.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.False(t, got.IsRevoked, "absolute expiry deactivates without revoking")
	assert.Nil(t, got.RevokedAt)
}

func TestUpdateActivity_AbsoluteAndIdleBoth(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)
	now := time.Now().UTC()

	s := mustCreate(t, m, now, "user-1", "tok-1")

	hb, err := m.UpdateActivity(ctx, now.Add(13*time.Hour), s.ID, "user-1")
	require.NoError(t, err)
	assert.False(t, hb.Valid)
	assert.Equal(t, StatusExpired, hb.State.Status)

	got, err := store.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.False(t, got.IsRevoked)
	require.NotNil(t, got.RevocationReason)
	assert.Equal(t, ReasonExpired, *got.RevocationReason)
}

func TestUpdateActivity_NoMutationCases(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)
	now := time.Now().UTC()

	s := mustCreate(t, m, now, "user-1", "tok-1")

	hb, err := m.UpdateActivity(ctx, now.Add(time.Minute), "missing", "user-1")
	require.NoError(t, err)
	assert.False(t, hb.Valid)

	hb, err = m.UpdateActivity(ctx, now.Add(time.Minute), s.ID, "user-2")
	require.NoError(t, err)
	assert.False(t, hb.Valid)

	got, err := store.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, now, got.LastActivityAt, "foreign heartbeat must not touch")

	ok, err := m.RevokeSession(ctx, now.Add(2*time.Minute), s.ID, "user-1")
	require.NoError(t, err)
	require.True(t, ok)

	hb, err = m.UpdateActivity(ctx, now.Add(3*time.Minute), s.ID, "user-1")
	require.NoError(t, err)
	assert.False(t, hb.Valid)
	assert.Equal(t, StatusRevoked, hb.State.Status)
	assert.Equal(t, ReasonLogout, hb.State.Reason)

	got, err = store.GetByID(ctx, s.ID)
	require.NoError(t, err)
	require.NotNil(t, got.RevokedAt)
	assert.Equal(t, now.Add(2*time.Minute), *got.RevokedAt, "revokedAt is not restamped")
	assert.Equal(t, ReasonLogout, *got.RevocationReason)
}

func TestGetActiveSessions_OrderAndCurrent(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)
	now := time.Now().UTC()

	a := mustCreate(t, m, now, "user-1", "tok-a")
	b := mustCreate(t, m, now.Add(time.Minute), "user-1", "tok-b")
	c := mustCreate(t, m, now.Add(2*time.Minute), "user-1", "tok-c")
	mustCreate(t, m, now, "user-2", "tok-other")

	_, err := m.UpdateActivity(ctx, now.Add(3*time.Minute), a.ID, "user-1")
	require.NoError(t, err)
	ok, err := m.RevokeSession(ctx, now.Add(3*time.Minute), c.ID, "user-1")
	require.NoError(t, err)
	require.True(t, ok)

	list, err := m.GetActiveSessions(ctx, now.Add(4*time.Minute), "user-1", b.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID)
	assert.False(t, list[0].IsCurrentSession)
	assert.Equal(t, b.ID, list[1].ID)
	assert.True(t, list[1].IsCurrentSession)

	// idle sessions drop out of the listing even before the sweep runs
	list, err = m.GetActiveSessions(ctx, now.Add(32*time.Minute), "user-1", b.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a.ID, list[0].ID)
}

func TestRevokeSession_Ownership(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)
	now := time.Now().UTC()

	s := mustCreate(t, m, now, "user-1", "tok-1")

	ok, err := m.RevokeSession(ctx, now, s.ID, "user-2")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = m.RevokeSession(ctx, now, "missing", "user-1")
	require.NoError(t, err)
	assert.False(t, ok)

	valid, err := m.IsSessionValid(ctx, now, s.ID, "user-1")
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestRevokeAllOtherAndAll(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)
	now := time.Now().UTC()

	cur := mustCreate(t, m, now, "user-1", "tok-1")
	mustCreate(t, m, now, "user-1", "tok-2")
	mustCreate(t, m, now, "user-1", "tok-3")
	other := mustCreate(t, m, now, "user-2", "tok-4")

	n, err := m.RevokeAllOtherSessions(ctx, now, "user-1", cur.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	list, err := m.GetActiveSessions(ctx, now, "user-1", cur.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, cur.ID, list[0].ID)

	n, err = m.RevokeAllOtherSessions(ctx, now, "user-1", cur.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = m.RevokeAllSessions(ctx, now, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	list, err = m.GetActiveSessions(ctx, now, "user-1", cur.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	valid, err := m.IsSessionValid(ctx, now, other.ID, "user-2")
	require.NoError(t, err)
	assert.True(t, valid, "other users are untouched")
}

func TestIsSessionValid_ReadOnly(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)
	now := time.Now().UTC()

	s := mustCreate(t, m, now, "user-1", "tok-1")

	valid, err := m.IsSessionValid(ctx, now.Add(45*time.Minute), s.ID, "user-1")
	require.NoError(t, err)
	assert.False(t, valid)

	got, err := store.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive, "validation must not mutate")
	assert.False(t, got.IsRevoked)

	valid, err = m.IsSessionValid(ctx, now, "missing", "user-1")
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestCleanupExpiredSessions_Idempotent(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)
	now := time.Now().UTC()

	idle := mustCreate(t, m, now.Add(-time.Hour), "user-1", "tok-idle")
	expired := mustCreate(t, m, now.Add(-13*time.Hour), "user-1", "tok-exp")
	fresh := mustCreate(t, m, now.Add(-time.Minute), "user-1", "tok-fresh")
	revoked := mustCreate(t, m, now.Add(-2*time.Hour), "user-2", "tok-rev")
	_, err := m.RevokeSession(ctx, now.Add(-2*time.Hour), revoked.ID, "user-2")
	require.NoError(t, err)

	n, err := m.CleanupExpiredSessions(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = m.CleanupExpiredSessions(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, n)

	for id, want := range map[string]RevocationReason{idle.ID: ReasonInactivity, expired.ID: ReasonExpired, revoked.ID: ReasonLogout} {
		got, err := store.GetByID(ctx, id)
		require.NoError(t, err)
		assert.False(t, got.IsActive)
		assert.True(t, got.IsRevoked)
		require.NotNil(t, got.RevocationReason)
		assert.Equal(t, want, *got.RevocationReason)
	}

	got, err := store.GetByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)
}

func TestEnsureSession(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)
	now := time.Now().UTC()
	claims := Claims{UserID: "user-1", TokenID: "jti-1"}

	s1, created, err := m.EnsureSession(ctx, now, claims, "198.51.100.1", testUA)
	require.NoError(t, err)
	assert.True(t, created)

	s2, created, err := m.EnsureSession(ctx, now.Add(time.Minute), claims, "198.51.100.1", testUA)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, s1.ID, s2.ID)

	_, _, err = m.EnsureSession(ctx, now, Claims{UserID: "user-2", TokenID: "jti-1"}, "", "")
	require.ErrorIs(t, err, ErrInvalidToken)

	got, err := m.GetSessionByTokenID(ctx, "jti-1")
	require.NoError(t, err)
	assert.Equal(t, s1.ID, got.ID)
}

func TestEnsureSession_ConcurrentFirstUse(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)
	now := time.Now().UTC()
	claims := Claims{UserID: "user-1", TokenID: "jti-race"}

	const n = 16
	ids := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, _, err := m.EnsureSession(ctx, now, claims, "", testUA)
			if err == nil {
				ids[i] = s.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	assert.NotEmpty(t, ids[0])
}

func TestConcurrentHeartbeatAndRevoke(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)
	now := time.Now().UTC()

	s := mustCreate(t, m, now, "user-1", "tok-1")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, _ = m.UpdateActivity(ctx, now.Add(time.Duration(i)*time.Second), s.ID, "user-1")
		}(i)
		go func() {
			defer wg.Done()
			_, _ = m.RevokeSession(ctx, now.Add(time.Minute), s.ID, "user-1")
		}()
	}
	wg.Wait()

	got, err := store.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, got.IsRevoked)
	assert.False(t, got.IsActive)

	hb, err := m.UpdateActivity(ctx, now.Add(2*time.Minute), s.ID, "user-1")
	require.NoError(t, err)
	assert.False(t, hb.Valid, "revoked session never comes back")
}

package session

import (
	"testing"
	"time"
)

func TestEvaluate(t *testing.T) {
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	inactivity := 30 * time.Minute
	logout := ReasonLogout
	revokedAt := now.Add(-time.Minute)

	base := Session{
		IsActive:       true,
		LastActivityAt: now.Add(-10 * time.Minute),
		ExpiresAt:      now.Add(time.Hour),
	}

	cases := []struct {
		name   string
		mutate func(*Session)
		want   Status
	}{
		{"active", func(*Session) {}, StatusActive},
		{"idle just under", func(s *Session) { s.LastActivityAt = now.Add(-inactivity + time.Nanosecond) }, StatusActive},
		{"idle at timeout", func(s *Session) { s.LastActivityAt = now.Add(-inactivity) }, StatusIdle},
		{"expired at cap", func(s *Session) { s.ExpiresAt = now }, StatusExpired},
		{"expired and idle", func(s *Session) {
			s.ExpiresAt = now.Add(-time.Minute)
			s.LastActivityAt = now.Add(-2 * time.Hour)
		}, StatusExpired},
		{"deactivated", func(s *Session) { s.IsActive = false }, StatusExpired},
		{"revoked", func(s *Session) {
			s.IsActive = false
			s.IsRevoked = true
			s.RevokedAt = &revokedAt
			s.RevocationReason = &logout
		}, StatusRevoked},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := base
			tc.mutate(&s)
			got := Evaluate(s, now, inactivity)
			if got.Status != tc.want {
				t.Fatalf("status mismatch: got %s want %s", got.Status, tc.want)
			}
			if got.Usable() != (tc.want == StatusActive) {
				t.Fatalf("usable mismatch for %s", tc.want)
			}
		})
	}

	s := base
	s.IsActive = false
	s.IsRevoked = true
	s.RevokedAt = &revokedAt
	s.RevocationReason = &logout
	got := Evaluate(s, now, inactivity)
	if got.Reason != ReasonLogout || !got.At.Equal(revokedAt) {
		t.Fatalf("revocation details mismatch: %+v", got)
	}
}

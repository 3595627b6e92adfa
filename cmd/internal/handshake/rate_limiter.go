package handshake

import (
	"sync"
	"time"
)

// InitiateLimiter is a per-user sliding-window limiter for session initiation.
// Key generation is the expensive path, so it is bounded before any work happens.
type InitiateLimiter struct {
	mu     sync.Mutex
	events map[string][]time.Time
	limit  int
	window time.Duration
}

// NewInitiateLimiter constructs a limiter. limit <= 0 disables limiting.
func NewInitiateLimiter(limit int, window time.Duration) *InitiateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &InitiateLimiter{
		events: make(map[string][]time.Time),
		limit:  limit,
		window: window,
	}
}

// Allow reports whether userID may initiate at now. When denied it returns how long
// until the oldest event leaves the window.
func (r *InitiateLimiter) Allow(userID string, now time.Time) (bool, time.Duration) {
	if r == nil || r.limit <= 0 {
		return true, 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cut := now.Add(-r.window)
	evs := r.events[userID]
	dst := evs[:0]
	for _, t := range evs {
		if t.After(cut) {
			dst = append(dst, t)
		}
	}

	if len(dst) >= r.limit {
		r.events[userID] = dst
		return false, dst[0].Sub(cut)
	}
	r.events[userID] = append(dst, now)
	return true, 0
}

// Prune drops users with no events inside the window. It runs on the cleanup schedule.
func (r *InitiateLimiter) Prune(now time.Time) int {
	if r == nil {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cut := now.Add(-r.window)
	n := 0
	for k, evs := range r.events {
		if len(evs) == 0 || !evs[len(evs)-1].After(cut) {
			delete(r.events, k)
			n++
		}
	}
	return n
}

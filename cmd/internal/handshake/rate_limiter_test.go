package handshake

import (
	"testing"
	"time"
)

func TestInitiateLimiter_SlidingWindow(t *testing.T) {
	r := NewInitiateLimiter(2, time.Minute)
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	if ok, _ := r.Allow("u", t0); !ok {
		t.Fatalf("first event should pass")
	}
	if ok, _ := r.Allow("u", t0.Add(10*time.Second)); !ok {
		t.Fatalf("second event should pass")
	}
	ok, retry := r.Allow("u", t0.Add(20*time.Second))
	if ok {
		t.Fatalf("third event inside window should be denied")
	}
	if retry != 40*time.Second {
		t.Fatalf("retry mismatch: %v", retry)
	}
	if ok, _ := r.Allow("other", t0.Add(20*time.Second)); !ok {
		t.Fatalf("limits are per user")
	}
	if ok, _ := r.Allow("u", t0.Add(61*time.Second)); !ok {
		t.Fatalf("event after window should pass")
	}
}

func TestInitiateLimiter_DisabledAndPrune(t *testing.T) {
	off := NewInitiateLimiter(0, time.Minute)
	for i := 0; i < 100; i++ {
		if ok, _ := off.Allow("u", time.Now()); !ok {
			t.Fatalf("disabled limiter must allow")
		}
	}

	r := NewInitiateLimiter(5, time.Minute)
	t0 := time.Now()
	r.Allow("a", t0)
	r.Allow("b", t0.Add(50*time.Second))

	if n := r.Prune(t0.Add(90 * time.Second)); n != 1 {
		t.Fatalf("expected 1 pruned, got %d", n)
	}
	if _, ok := r.events["b"]; !ok {
		t.Fatalf("recent user must be kept")
	}
}

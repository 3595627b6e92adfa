package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/masterdeepak15/SecureNoteAndKeyPassVault/cmd/internal/metrics"
)

// DefaultInterval is the sweep period when none is configured.
const DefaultInterval = 5 * time.Minute

// Sweeper reclaims expired state and reports how many records it touched.
type Sweeper interface {
	Name() string
	Sweep(ctx context.Context, now time.Time) (int, error)
}

// Result is the outcome of one sweeper during a single pass.
type Result struct {
	Name      string
	Reclaimed int
	Err       error
}

// Scheduler calls every registered sweeper once at start and then on every tick.
type Scheduler struct {
	interval time.Duration
	sweepers []Sweeper
	log      *slog.Logger
	now      func() time.Time
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock overrides the time source handed to sweepers (tests only).
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// NewScheduler builds a Scheduler. interval <= 0 selects DefaultInterval.
func NewScheduler(interval time.Duration, log *slog.Logger, sweepers []Sweeper, opts ...Option) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if log == nil {
		log = slog.Default()
	}
	s := &Scheduler{
		interval: interval,
		sweepers: sweepers,
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Run sweeps immediately and then every interval until ctx is done.
// It only returns ctx.Err().
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info("cleanup.start", "interval", s.interval.String(), "sweepers", len(s.sweepers))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.RunOnce(ctx)

		select {
		case <-ctx.Done():
			s.log.Info("cleanup.stop")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce runs every sweeper once. A failing sweeper does not prevent the others from
// running; its error is logged and returned in its Result.
func (s *Scheduler) RunOnce(ctx context.Context) []Result {
	results := make([]Result, 0, len(s.sweepers))
	for _, sw := range s.sweepers {
		if ctx.Err() != nil {
			break
		}
		results = append(results, s.sweepOne(ctx, sw))
	}
	return results
}

func (s *Scheduler) sweepOne(ctx context.Context, sw Sweeper) (res Result) {
	res.Name = sw.Name()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			res.Reclaimed = 0
			res.Err = fmt.Errorf("cleanup: sweeper %s panicked: %v", res.Name, r)
		}

		metrics.SweepDuration.WithLabelValues(res.Name).Observe(time.Since(start).Seconds())
		if res.Err != nil {
			metrics.SweepRuns.WithLabelValues(res.Name, "error").Inc()
			s.log.Error("cleanup.sweep.fail", "sweeper", res.Name, "err", res.Err)
			return
		}
		metrics.SweepRuns.WithLabelValues(res.Name, "ok").Inc()
		metrics.SweepReclaimed.WithLabelValues(res.Name).Add(float64(res.Reclaimed))
		if res.Reclaimed > 0 {
			s.log.Info("cleanup.sweep", "sweeper", res.Name, "reclaimed", res.Reclaimed)
		}
	}()

	res.Reclaimed, res.Err = sw.Sweep(ctx, s.now())
	return res
}

package poller

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Scheduler runs cycles on a ticker and on demand. Triggered cycles run
// concurrently with scheduled ones; the device registry serializes their
// writes.
type Scheduler struct {
	poller *Poller
	logger zerolog.Logger

	mu       sync.Mutex
	interval time.Duration
	ctx      context.Context
	reset    chan time.Duration
	inflight sync.WaitGroup
}

// NewScheduler creates a scheduler with the given tick interval
func NewScheduler(p *Poller, interval time.Duration, logger zerolog.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{
		poller:   p,
		logger:   logger,
		interval: interval,
		ctx:      context.Background(),
		reset:    make(chan time.Duration, 1),
	}
}

// Interval returns the current tick interval
func (s *Scheduler) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// Run performs one cycle immediately and then one per tick until ctx is done
func (s *Scheduler) Run(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	interval := s.interval
	s.mu.Unlock()

	s.logger.Info().Dur("interval", interval).Msg("Scheduler started")
	s.poller.RunCycle(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Scheduler stopped")
			return
		case d := <-s.reset:
			ticker.Reset(d)
			s.logger.Info().Dur("interval", d).Msg("Poll interval changed")
		case <-ticker.C:
			s.poller.RunCycle(ctx)
		}
	}
}

// Trigger starts an extra cycle in the background and returns immediately
func (s *Scheduler) Trigger() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		s.logger.Info().Msg("On-demand cycle triggered")
		s.poller.RunCycle(ctx)
	}()
}

// SetInterval changes the tick interval; non-positive values are ignored
func (s *Scheduler) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	s.mu.Lock()
	if d == s.interval {
		s.mu.Unlock()
		return
	}
	s.interval = d
	s.mu.Unlock()

	// keep only the newest pending value
	select {
	case <-s.reset:
	default:
	}
	select {
	case s.reset <- d:
	default:
	}
}

// Wait blocks until triggered cycles have finished
func (s *Scheduler) Wait() {
	s.inflight.Wait()
}

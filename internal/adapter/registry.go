package adapter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"lanwatch/internal/domain"
)

// DefaultSourceTimeout bounds a source call when none is configured
const DefaultSourceTimeout = 30 * time.Second

// Results holds the outcome of every source for one cycle
type Results struct {
	Wireless  Outcome[domain.WirelessClient]
	Wired     Outcome[domain.WiredInterface]
	Neighbors Outcome[domain.NeighborRecord]
	Sweep     Outcome[domain.SweepHost]
}

// Failures returns the errors of sources that did not answer, keyed by kind
func (r Results) Failures() map[domain.SourceKind]error {
	failures := make(map[domain.SourceKind]error)
	if !r.Wireless.OK() {
		failures[domain.SourceWireless] = r.Wireless.Err
	}
	if !r.Wired.OK() {
		failures[domain.SourceWired] = r.Wired.Err
	}
	if !r.Neighbors.OK() {
		failures[domain.SourceNeighbor] = r.Neighbors.Err
	}
	if !r.Sweep.OK() {
		failures[domain.SourceSweep] = r.Sweep.Err
	}
	return failures
}

// Registry holds the source configured for each kind. Sources may be
// replaced while cycles are running; a cycle uses the set it started with.
type Registry struct {
	mu        sync.RWMutex
	wireless  Source[domain.WirelessClient]
	wired     Source[domain.WiredInterface]
	neighbors Source[domain.NeighborRecord]
	sweep     Source[domain.SweepHost]
	timeouts  map[domain.SourceKind]time.Duration
	logger    zerolog.Logger
}

// NewRegistry creates an empty registry; unset sources are skipped
func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		timeouts: make(map[domain.SourceKind]time.Duration),
		logger:   logger,
	}
}

// SetWireless registers the wireless source
func (r *Registry) SetWireless(src Source[domain.WirelessClient], timeout time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wireless = src
	r.setTimeout(domain.SourceWireless, timeout)
	r.logRegistered(domain.SourceWireless, src)
}

// SetWired registers the wired interface source
func (r *Registry) SetWired(src Source[domain.WiredInterface], timeout time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wired = src
	r.setTimeout(domain.SourceWired, timeout)
	r.logRegistered(domain.SourceWired, src)
}

// SetNeighbors registers the neighbor-discovery source
func (r *Registry) SetNeighbors(src Source[domain.NeighborRecord], timeout time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.neighbors = src
	r.setTimeout(domain.SourceNeighbor, timeout)
	r.logRegistered(domain.SourceNeighbor, src)
}

// SetSweep registers the host sweep source
func (r *Registry) SetSweep(src Source[domain.SweepHost], timeout time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweep = src
	r.setTimeout(domain.SourceSweep, timeout)
	r.logRegistered(domain.SourceSweep, src)
}

// Set is a complete source configuration; nil sources are disabled and zero
// timeouts fall back to DefaultSourceTimeout.
type Set struct {
	Wireless  Source[domain.WirelessClient]
	Wired     Source[domain.WiredInterface]
	Neighbors Source[domain.NeighborRecord]
	Sweep     Source[domain.SweepHost]
	Timeouts  map[domain.SourceKind]time.Duration
}

// Replace swaps in every source at once, so no cycle sees a mix of old and
// new configuration.
func (r *Registry) Replace(set Set) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wireless, r.wired, r.neighbors, r.sweep = set.Wireless, set.Wired, set.Neighbors, set.Sweep
	r.timeouts = make(map[domain.SourceKind]time.Duration)
	for _, kind := range []domain.SourceKind{domain.SourceWireless, domain.SourceWired, domain.SourceNeighbor, domain.SourceSweep} {
		r.setTimeout(kind, set.Timeouts[kind])
	}
	r.logRegistered(domain.SourceWireless, set.Wireless)
	r.logRegistered(domain.SourceWired, set.Wired)
	r.logRegistered(domain.SourceNeighbor, set.Neighbors)
	r.logRegistered(domain.SourceSweep, set.Sweep)
}

func (r *Registry) setTimeout(kind domain.SourceKind, timeout time.Duration) {
	if timeout <= 0 {
		timeout = DefaultSourceTimeout
	}
	r.timeouts[kind] = timeout
}

func (r *Registry) logRegistered(kind domain.SourceKind, src interface{ Name() string }) {
	if src == nil {
		return
	}
	r.logger.Info().
		Str("kind", string(kind)).
		Str("source", src.Name()).
		Dur("timeout", r.timeouts[kind]).
		Msg("Registered source")
}

// Collect polls every registered source concurrently. It never fails: a
// source that errors, panics or times out contributes an empty outcome.
func (r *Registry) Collect(ctx context.Context) Results {
	r.mu.RLock()
	wireless, wired, neighbors, sweep := r.wireless, r.wired, r.neighbors, r.sweep
	timeouts := make(map[domain.SourceKind]time.Duration, len(r.timeouts))
	for k, v := range r.timeouts {
		timeouts[k] = v
	}
	r.mu.RUnlock()

	var (
		res Results
		g   errgroup.Group
	)

	g.Go(func() error {
		res.Wireless = collectKind(ctx, r.logger, domain.SourceWireless, timeouts, wireless)
		return nil
	})
	g.Go(func() error {
		res.Wired = collectKind(ctx, r.logger, domain.SourceWired, timeouts, wired)
		return nil
	})
	g.Go(func() error {
		res.Neighbors = collectKind(ctx, r.logger, domain.SourceNeighbor, timeouts, neighbors)
		return nil
	})
	g.Go(func() error {
		res.Sweep = collectKind(ctx, r.logger, domain.SourceSweep, timeouts, sweep)
		return nil
	})
	_ = g.Wait()

	return res
}

func collectKind[T any](ctx context.Context, logger zerolog.Logger, kind domain.SourceKind,
	timeouts map[domain.SourceKind]time.Duration, src Source[T]) Outcome[T] {
	if src == nil {
		out := Collect[T](ctx, nil)
		out.Source = string(kind)
		return out
	}

	timeout := timeouts[kind]
	if timeout <= 0 {
		timeout = DefaultSourceTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// A source that ignores its context is abandoned at the deadline so the
	// rest of the cycle can proceed.
	start := time.Now()
	done := make(chan Outcome[T], 1)
	go func() { done <- Collect(callCtx, src) }()

	var out Outcome[T]
	select {
	case out = <-done:
	case <-callCtx.Done():
		out = Outcome[T]{
			Source:  src.Name(),
			Records: []T{},
			Err:     fmt.Errorf("source %s: %w", src.Name(), callCtx.Err()),
			Elapsed: time.Since(start),
		}
	}
	if !out.OK() {
		logger.Warn().
			Err(out.Err).
			Str("kind", string(kind)).
			Str("source", out.Source).
			Dur("elapsed", out.Elapsed).
			Msg("Source unavailable, continuing without it")
		return out
	}

	logger.Debug().
		Str("kind", string(kind)).
		Str("source", out.Source).
		Int("records", len(out.Records)).
		Dur("elapsed", out.Elapsed).
		Msg("Source polled")
	return out
}

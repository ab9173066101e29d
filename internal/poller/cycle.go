// Package poller runs poll cycles: collect from every source, normalize,
// update the device registry, build the topology graph, append a snapshot
// and publish metrics.
package poller

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"lanwatch/internal/adapter"
	"lanwatch/internal/core/normalize"
	"lanwatch/internal/core/topology"
	"lanwatch/internal/domain"
	"lanwatch/internal/metrics"
	"lanwatch/internal/service"
)

// Collector gathers one round of source outcomes
type Collector interface {
	Collect(ctx context.Context) adapter.Results
}

// DeviceWriter is the registry write path
type DeviceWriter interface {
	Upsert(ctx context.Context, records []domain.Record) (int, error)
}

// SnapshotAppender is the snapshot write path
type SnapshotAppender interface {
	Append(ctx context.Context, g *domain.Graph) (int64, error)
}

// CycleReport describes what one cycle achieved. Errors never abort the
// cycle; each write path records its own failure.
type CycleReport struct {
	ID           string                       `json:"cycle_id"`
	StartedAt    time.Time                    `json:"started_at"`
	Duration     time.Duration                `json:"duration"`
	SourceErrors map[domain.SourceKind]string `json:"source_errors,omitempty"`
	Records      int                          `json:"records"`
	Upserted     int                          `json:"upserted"`
	SnapshotID   int64                        `json:"snapshot_id,omitempty"`
	Nodes        int                          `json:"nodes"`
	Edges        int                          `json:"edges"`

	RegistryErr error `json:"-"`
	SnapshotErr error `json:"-"`
	MetricsErr  error `json:"-"`
}

// OK reports whether both persistence paths succeeded
func (r *CycleReport) OK() bool {
	return r.RegistryErr == nil && r.SnapshotErr == nil
}

// Poller wires the cycle stages together
type Poller struct {
	sources   Collector
	registry  DeviceWriter
	snapshots SnapshotAppender
	sink      metrics.Sink
	rates     *metrics.RateTracker
	events    *service.EventBus
	logger    zerolog.Logger
	last      atomic.Pointer[CycleReport]
}

// New creates a poller. A nil sink skips metrics and a nil bus skips events.
func New(sources Collector, registry DeviceWriter, snapshots SnapshotAppender,
	sink metrics.Sink, events *service.EventBus, logger zerolog.Logger) *Poller {
	return &Poller{
		sources:   sources,
		registry:  registry,
		snapshots: snapshots,
		sink:      sink,
		rates:     metrics.NewRateTracker(),
		events:    events,
		logger:    logger,
	}
}

// LastReport returns the most recently completed cycle, or nil
func (p *Poller) LastReport() *CycleReport {
	return p.last.Load()
}

// RunCycle performs one full cycle
func (p *Poller) RunCycle(ctx context.Context) *CycleReport {
	report := &CycleReport{
		ID:           uuid.NewString(),
		StartedAt:    time.Now().UTC(),
		SourceErrors: make(map[domain.SourceKind]string),
	}
	log := p.logger.With().Str("cycle_id", report.ID).Logger()
	log.Info().Msg("Poll cycle started")
	p.events.Publish(service.Event{Type: service.EventCycleStarted, Payload: map[string]string{"cycle_id": report.ID}})

	res := p.sources.Collect(ctx)
	collectedAt := time.Now().UTC()
	for kind, err := range res.Failures() {
		report.SourceErrors[kind] = err.Error()
	}

	reported := make([]domain.Record, 0, len(res.Wireless.Records)+len(res.Wired.Records))
	for _, c := range res.Wireless.Records {
		reported = append(reported, c.Record())
	}
	for _, i := range res.Wired.Records {
		reported = append(reported, i.Record())
	}
	reported = normalize.Records(reported)

	swept := make([]domain.Record, 0, len(res.Sweep.Records))
	for _, h := range res.Sweep.Records {
		swept = append(swept, h.Record())
	}
	swept = normalize.Records(swept)

	records := make([]domain.Record, 0, len(reported)+len(swept))
	records = append(records, reported...)
	records = append(records, swept...)
	report.Records = len(records)

	// registry path completes before the snapshot is written
	report.Upserted, report.RegistryErr = p.registry.Upsert(ctx, records)
	if report.RegistryErr != nil {
		log.Error().Err(report.RegistryErr).Int("committed", report.Upserted).Msg("Registry update failed")
	}

	graph := topology.BuildInput(topology.Input{
		Wireless:  res.Wireless.Records,
		Wired:     res.Wired.Records,
		Neighbors: res.Neighbors.Records,
	})
	report.Nodes, report.Edges = len(graph.Nodes), len(graph.Edges)

	report.SnapshotID, report.SnapshotErr = p.snapshots.Append(ctx, graph)
	if report.SnapshotErr != nil {
		log.Error().Err(report.SnapshotErr).Msg("Snapshot append failed")
	}

	report.MetricsErr = p.publishMetrics(ctx, reported, collectedAt, graph)
	if report.MetricsErr != nil {
		log.Warn().Err(report.MetricsErr).Msg("Metrics publish failed")
	}

	report.Duration = time.Since(report.StartedAt)
	p.last.Store(report)

	log.Info().
		Int("records", report.Records).
		Int("upserted", report.Upserted).
		Int("nodes", report.Nodes).
		Int("edges", report.Edges).
		Int("source_errors", len(report.SourceErrors)).
		Dur("duration", report.Duration).
		Msg("Poll cycle completed")
	p.events.Publish(service.Event{Type: service.EventCycleCompleted, Payload: report})

	return report
}

// publishMetrics sends one bandwidth point per reported record. Sweep records
// carry no counters and are left out.
func (p *Poller) publishMetrics(ctx context.Context, records []domain.Record, at time.Time, graph *domain.Graph) error {
	if p.sink == nil {
		return nil
	}
	data, err := graph.MarshalCanonical()
	if err != nil {
		return err
	}
	points := append(p.rates.BandwidthPoints(records, at), metrics.TopologyPoint(data))
	return p.sink.Publish(ctx, points)
}

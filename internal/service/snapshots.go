package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"lanwatch/internal/domain"
	"lanwatch/internal/repository"
)

// SnapshotService appends topology graphs to the snapshot log and reads
// them back. Appends need no coordination: each is one INSERT.
type SnapshotService struct {
	store  repository.SnapshotStore
	events *EventBus
	logger zerolog.Logger
	now    func() time.Time
}

// NewSnapshotService creates a snapshot service. A nil bus disables events.
func NewSnapshotService(store repository.SnapshotStore, events *EventBus, logger zerolog.Logger) *SnapshotService {
	return &SnapshotService{
		store:  store,
		events: events,
		logger: logger,
		now:    time.Now,
	}
}

// SetClock replaces time.Now
func (s *SnapshotService) SetClock(now func() time.Time) {
	s.now = now
}

// Append serializes g and stores it with the current time
func (s *SnapshotService) Append(ctx context.Context, g *domain.Graph) (int64, error) {
	data, err := g.MarshalCanonical()
	if err != nil {
		return 0, fmt.Errorf("failed to serialize graph: %w", err)
	}

	ts := s.now().UTC()
	id, err := s.store.AppendSnapshot(ctx, ts, data)
	if err != nil {
		return 0, err
	}

	s.logger.Debug().
		Int64("snapshot_id", id).
		Int("nodes", len(g.Nodes)).
		Int("edges", len(g.Edges)).
		Msg("Snapshot appended")

	s.events.Publish(Event{
		Type: EventSnapshotAppended,
		Payload: domain.SnapshotSummary{
			ID:        id,
			Timestamp: ts,
			NodeCount: len(g.Nodes),
			EdgeCount: len(g.Edges),
		},
	})

	return id, nil
}

// Get returns one snapshot
func (s *SnapshotService) Get(ctx context.Context, id int64) (*domain.Snapshot, error) {
	return s.store.GetSnapshot(ctx, id)
}

// Latest returns up to n snapshots, newest first
func (s *SnapshotService) Latest(ctx context.Context, n int) ([]domain.Snapshot, error) {
	return s.store.LatestSnapshots(ctx, n)
}

// At returns the first snapshot taken at or after ts
func (s *SnapshotService) At(ctx context.Context, ts time.Time) (*domain.Snapshot, error) {
	return s.store.SnapshotAt(ctx, ts)
}

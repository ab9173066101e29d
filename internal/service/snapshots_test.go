package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lanwatch/internal/domain"
)

func TestSnapshotServiceAppend(t *testing.T) {
	ctx := context.Background()
	bus := NewEventBus()
	events := make(chan Event, 4)
	bus.Subscribe(events)

	svc := NewSnapshotService(newTestStore(t), bus, zerolog.Nop())
	t0 := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	svc.SetClock(fixedClock(t0))

	g := domain.NewGraph()
	g.Nodes = append(g.Nodes, domain.GraphNode{ID: "aa:bb", Label: "device1"})

	id1, err := svc.Append(ctx, g)
	require.NoError(t, err)
	id2, err := svc.Append(ctx, domain.NewGraph())
	require.NoError(t, err)
	assert.Greater(t, id2, id1)

	ev := <-events
	assert.Equal(t, EventSnapshotAppended, ev.Type)
	sum, ok := ev.Payload.(domain.SnapshotSummary)
	require.True(t, ok)
	assert.Equal(t, id1, sum.ID)
	assert.Equal(t, 1, sum.NodeCount)

	s, err := svc.Get(ctx, id1)
	require.NoError(t, err)
	assert.JSONEq(t, `{"nodes":[{"id":"aa:bb","label":"device1"}],"edges":[]}`, string(s.GraphJSON))
	assert.True(t, s.Timestamp.Equal(t0))

	again, err := svc.Get(ctx, id1)
	require.NoError(t, err)
	assert.Equal(t, s.GraphJSON, again.GraphJSON)

	latest, err := svc.Latest(ctx, 10)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, id2, latest[0].ID)

	at, err := svc.At(ctx, t0)
	require.NoError(t, err)
	assert.Equal(t, id1, at.ID)
}

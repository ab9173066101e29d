package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lanwatch/internal/domain"
	"lanwatch/internal/repository"
)

func TestLabelService(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.UpsertDevice(ctx, domain.Record{MAC: "aa:bb"}, time.Now()))

	svc := NewLabelService(store, nil)

	_, err := svc.Set(ctx, domain.Label{MAC: " ", Label: "x"})
	assert.ErrorIs(t, err, ErrInvalidLabel)

	_, err = svc.Set(ctx, domain.Label{MAC: "ff:ff", Label: "x"})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	l, err := svc.Set(ctx, domain.Label{MAC: "AA:BB", Label: "Printer"})
	require.NoError(t, err)
	assert.Equal(t, "aa:bb", l.MAC)

	labels, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Label{{MAC: "aa:bb", Label: "Printer"}}, labels)

	require.NoError(t, svc.Delete(ctx, "AA:BB"))
	assert.ErrorIs(t, svc.Delete(ctx, "aa:bb"), repository.ErrNotFound)
}

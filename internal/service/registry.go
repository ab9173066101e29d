package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"lanwatch/internal/domain"
	"lanwatch/internal/repository"
)

// ErrRegistryStopped is returned for writes submitted after Run has exited
var ErrRegistryStopped = errors.New("device registry stopped")

// DeviceRegistry owns every write to the device table. Writers submit work
// to the goroutine started with Run, so concurrent poll cycles never
// interleave upserts of the same address.
type DeviceRegistry struct {
	store    repository.DeviceStore
	events   *EventBus
	logger   zerolog.Logger
	now      func() time.Time
	requests chan writeRequest
	done     chan struct{}

	// last is the previous observation time; only the Run goroutine uses it
	last time.Time
}

// RegistryOption configures a DeviceRegistry
type RegistryOption func(*DeviceRegistry)

// WithRegistryClock replaces time.Now
func WithRegistryClock(now func() time.Time) RegistryOption {
	return func(r *DeviceRegistry) {
		r.now = now
	}
}

// WithRegistryEvents publishes upsert and delete events to bus
func WithRegistryEvents(bus *EventBus) RegistryOption {
	return func(r *DeviceRegistry) {
		r.events = bus
	}
}

type writeRequest struct {
	ctx   context.Context
	apply func(ctx context.Context) (int, error)
	reply chan writeResult
}

type writeResult struct {
	n   int
	err error
}

// NewDeviceRegistry creates a registry. Call Run before submitting writes.
func NewDeviceRegistry(store repository.DeviceStore, logger zerolog.Logger, opts ...RegistryOption) *DeviceRegistry {
	r := &DeviceRegistry{
		store:    store,
		logger:   logger,
		now:      time.Now,
		requests: make(chan writeRequest),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run serves write requests until ctx is cancelled
func (r *DeviceRegistry) Run(ctx context.Context) {
	defer close(r.done)
	for {
		select {
		case req := <-r.requests:
			n, err := req.apply(req.ctx)
			req.reply <- writeResult{n: n, err: err}
		case <-ctx.Done():
			return
		}
	}
}

// Upsert writes records one statement at a time. The first storage error
// stops the remaining records; records written before it stay committed.
// It returns the number of records committed.
func (r *DeviceRegistry) Upsert(ctx context.Context, records []domain.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	n, err := r.submit(ctx, func(ctx context.Context) (int, error) {
		return r.upsert(ctx, records)
	})
	if n > 0 {
		r.events.Publish(Event{Type: EventDevicesUpserted, Payload: map[string]int{"count": n}})
	}
	return n, err
}

// Delete removes a device and its label. Reconciliation never calls it.
func (r *DeviceRegistry) Delete(ctx context.Context, mac string) error {
	mac = domain.CanonicalMAC(mac)
	_, err := r.submit(ctx, func(ctx context.Context) (int, error) {
		return 0, r.store.DeleteDevice(ctx, mac)
	})
	if err == nil {
		r.events.Publish(Event{Type: EventDeviceDeleted, Payload: map[string]string{"mac": mac}})
	}
	return err
}

// Get returns one device
func (r *DeviceRegistry) Get(ctx context.Context, mac string) (*domain.Device, error) {
	return r.store.GetDevice(ctx, domain.CanonicalMAC(mac))
}

// List returns every registered device
func (r *DeviceRegistry) List(ctx context.Context) ([]domain.Device, error) {
	return r.store.ListDevices(ctx)
}

func (r *DeviceRegistry) submit(ctx context.Context, apply func(context.Context) (int, error)) (int, error) {
	req := writeRequest{ctx: ctx, apply: apply, reply: make(chan writeResult, 1)}

	select {
	case r.requests <- req:
	case <-r.done:
		return 0, ErrRegistryStopped
	case <-ctx.Done():
		return 0, ctx.Err()
	}

	// Once accepted the actor always replies, and it runs apply under ctx.
	// Waiting keeps the committed count accurate after a late cancel.
	res := <-req.reply
	return res.n, res.err
}

func (r *DeviceRegistry) upsert(ctx context.Context, records []domain.Record) (int, error) {
	seenAt := r.observationTime()
	for i, rec := range records {
		if err := r.store.UpsertDevice(ctx, rec, seenAt); err != nil {
			r.logger.Error().Err(err).
				Int("committed", i).
				Int("remaining", len(records)-i).
				Msg("Registry upsert aborted")
			return i, fmt.Errorf("failed to upsert device %d of %d: %w", i+1, len(records), err)
		}
	}
	r.logger.Debug().Int("count", len(records)).Msg("Registry upsert complete")
	return len(records), nil
}

// observationTime returns now, bumped past the previous value if the clock
// has not advanced
func (r *DeviceRegistry) observationTime() time.Time {
	now := r.now().UTC()
	if !now.After(r.last) {
		now = r.last.Add(time.Nanosecond)
	}
	r.last = now
	return now
}

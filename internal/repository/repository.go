package repository

import (
	"context"
	"errors"
	"time"

	"lanwatch/internal/domain"
)

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("not found")

// DeviceStore persists the device registry
type DeviceStore interface {
	// UpsertDevice inserts or updates one device in a single statement.
	// Empty fields never overwrite stored values.
	UpsertDevice(ctx context.Context, rec domain.Record, seenAt time.Time) error
	GetDevice(ctx context.Context, mac string) (*domain.Device, error)
	ListDevices(ctx context.Context) ([]domain.Device, error)
	// DeleteDevice is a management operation; it cascades the device label
	DeleteDevice(ctx context.Context, mac string) error
}

// LabelStore persists operator labels
type LabelStore interface {
	ListLabels(ctx context.Context) ([]domain.Label, error)
	GetLabel(ctx context.Context, mac string) (*domain.Label, error)
	SetLabel(ctx context.Context, mac, label string) error
	DeleteLabel(ctx context.Context, mac string) error
}

// SnapshotStore is the append-only topology log
type SnapshotStore interface {
	AppendSnapshot(ctx context.Context, ts time.Time, graphJSON []byte) (int64, error)
	GetSnapshot(ctx context.Context, id int64) (*domain.Snapshot, error)
	// LatestSnapshots returns up to n snapshots, newest first
	LatestSnapshots(ctx context.Context, n int) ([]domain.Snapshot, error)
	// SnapshotAt returns the first snapshot taken at or after ts
	SnapshotAt(ctx context.Context, ts time.Time) (*domain.Snapshot, error)
}

// Repository combines every store
type Repository interface {
	DeviceStore
	LabelStore
	SnapshotStore

	// Close releases resources
	Close() error
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"lanwatch/internal/domain"
	"lanwatch/internal/repository"
)

const snapshotColumns = `id, ts, graph_json`

// AppendSnapshot stores a serialized graph and returns its id
func (r *Repository) AppendSnapshot(ctx context.Context, ts time.Time, graphJSON []byte) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO topology_snapshots (ts, graph_json) VALUES (?, ?)`,
		formatTime(ts), string(graphJSON))
	if err != nil {
		return 0, fmt.Errorf("failed to append snapshot: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read snapshot id: %w", err)
	}
	return id, nil
}

// GetSnapshot returns one snapshot by id
func (r *Repository) GetSnapshot(ctx context.Context, id int64) (*domain.Snapshot, error) {
	return r.querySnapshot(ctx,
		`SELECT `+snapshotColumns+` FROM topology_snapshots WHERE id = ?`, id)
}

// SnapshotAt returns the earliest snapshot with ts >= the given time
func (r *Repository) SnapshotAt(ctx context.Context, ts time.Time) (*domain.Snapshot, error) {
	return r.querySnapshot(ctx,
		`SELECT `+snapshotColumns+` FROM topology_snapshots WHERE ts >= ? ORDER BY ts, id LIMIT 1`,
		formatTime(ts))
}

// LatestSnapshots returns up to n snapshots, newest first
func (r *Repository) LatestSnapshots(ctx context.Context, n int) ([]domain.Snapshot, error) {
	if n <= 0 {
		return []domain.Snapshot{}, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+snapshotColumns+` FROM topology_snapshots ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := make([]domain.Snapshot, 0, n)
	for rows.Next() {
		var row snapshotRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		s, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}
	return snapshots, nil
}

func (r *Repository) querySnapshot(ctx context.Context, query string, args ...interface{}) (*domain.Snapshot, error) {
	var row snapshotRow
	err := r.db.QueryRowContext(ctx, query, args...).Scan(row.scanArgs()...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return row.toDomain()
}

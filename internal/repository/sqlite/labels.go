package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"lanwatch/internal/domain"
	"lanwatch/internal/repository"
)

// ListLabels returns all labels ordered by address
func (r *Repository) ListLabels(ctx context.Context) ([]domain.Label, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT mac, label FROM labels ORDER BY mac`)
	if err != nil {
		return nil, fmt.Errorf("failed to query labels: %w", err)
	}
	defer rows.Close()

	labels := make([]domain.Label, 0)
	for rows.Next() {
		var (
			l     domain.Label
			label sql.NullString
		)
		if err := rows.Scan(&l.MAC, &label); err != nil {
			return nil, fmt.Errorf("failed to scan label: %w", err)
		}
		l.Label = nullToString(label)
		labels = append(labels, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating labels: %w", err)
	}
	return labels, nil
}

// GetLabel returns the label of one device
func (r *Repository) GetLabel(ctx context.Context, mac string) (*domain.Label, error) {
	var label sql.NullString
	err := r.db.QueryRowContext(ctx, `SELECT label FROM labels WHERE mac = ?`, mac).Scan(&label)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get label: %w", err)
	}
	return &domain.Label{MAC: mac, Label: nullToString(label)}, nil
}

// SetLabel creates or replaces the label of a known device.
// It returns repository.ErrNotFound when the device is not registered.
func (r *Repository) SetLabel(ctx context.Context, mac, label string) error {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO labels (mac, label)
		SELECT ?, ? WHERE EXISTS (SELECT 1 FROM devices WHERE mac = ?)
		ON CONFLICT(mac) DO UPDATE SET label = excluded.label
	`, mac, label, mac)
	if err != nil {
		return fmt.Errorf("failed to set label: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteLabel removes a label
func (r *Repository) DeleteLabel(ctx context.Context, mac string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM labels WHERE mac = ?`, mac)
	if err != nil {
		return fmt.Errorf("failed to delete label: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

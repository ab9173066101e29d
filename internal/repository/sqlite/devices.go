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

// UpsertDevice inserts a new device or refreshes an existing one.
// first_seen is only written on insert. Empty incoming fields keep the stored
// value and last_seen never moves backwards.
func (r *Repository) UpsertDevice(ctx context.Context, rec domain.Record, seenAt time.Time) error {
	if rec.MAC == "" {
		return fmt.Errorf("failed to upsert device: empty mac")
	}
	ts := formatTime(seenAt)

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO devices (mac, hostname, first_seen, last_seen, ap_mac, switch_mac, ip)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(mac) DO UPDATE SET
			hostname = COALESCE(NULLIF(excluded.hostname, ''), devices.hostname),
			ap_mac = COALESCE(NULLIF(excluded.ap_mac, ''), devices.ap_mac),
			switch_mac = COALESCE(NULLIF(excluded.switch_mac, ''), devices.switch_mac),
			ip = COALESCE(NULLIF(excluded.ip, ''), devices.ip),
			last_seen = MAX(devices.last_seen, excluded.last_seen)
	`, rec.MAC, stringToNull(rec.Hostname), ts, ts,
		stringToNull(rec.APMAC), stringToNull(rec.SwitchMAC), stringToNull(rec.IP))
	if err != nil {
		return fmt.Errorf("failed to upsert device %s: %w", rec.MAC, err)
	}
	return nil
}

// GetDevice returns one device with its label
func (r *Repository) GetDevice(ctx context.Context, mac string) (*domain.Device, error) {
	var row deviceRow
	err := r.db.QueryRowContext(ctx, `
		SELECT `+deviceColumns+`
		FROM devices d LEFT JOIN labels l ON l.mac = d.mac
		WHERE d.mac = ?
	`, mac).Scan(row.scanArgs()...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get device: %w", err)
	}
	return row.toDomain()
}

// ListDevices returns every device ordered by address
func (r *Repository) ListDevices(ctx context.Context) ([]domain.Device, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+deviceColumns+`
		FROM devices d LEFT JOIN labels l ON l.mac = d.mac
		ORDER BY d.mac
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query devices: %w", err)
	}
	defer rows.Close()

	devices := make([]domain.Device, 0)
	for rows.Next() {
		var row deviceRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		d, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		devices = append(devices, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating devices: %w", err)
	}
	return devices, nil
}

// DeleteDevice removes a device and, through the foreign key, its label
func (r *Repository) DeleteDevice(ctx context.Context, mac string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM devices WHERE mac = ?`, mac)
	if err != nil {
		return fmt.Errorf("failed to delete device: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

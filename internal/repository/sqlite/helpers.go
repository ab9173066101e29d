package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"lanwatch/internal/domain"
)

// timeLayout is fixed width so text order equals time order
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// formatTime renders t in UTC using timeLayout
func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime parses a value written by formatTime
func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// nullToString safely converts sql.NullString to string
func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// stringToNull safely converts string to sql.NullString
func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// deviceColumns MUST match deviceRow.scanArgs order
const deviceColumns = `d.mac, d.hostname, d.first_seen, d.last_seen, d.ap_mac, d.switch_mac, d.ip, l.label`

// deviceRow holds all columns from a device query for scanning
type deviceRow struct {
	MAC       string
	Hostname  sql.NullString
	FirstSeen string
	LastSeen  string
	APMAC     sql.NullString
	SwitchMAC sql.NullString
	IP        sql.NullString
	Label     sql.NullString
}

func (r *deviceRow) scanArgs() []interface{} {
	return []interface{}{
		&r.MAC,
		&r.Hostname,
		&r.FirstSeen,
		&r.LastSeen,
		&r.APMAC,
		&r.SwitchMAC,
		&r.IP,
		&r.Label,
	}
}

func (r *deviceRow) toDomain() (*domain.Device, error) {
	firstSeen, err := parseTime(r.FirstSeen)
	if err != nil {
		return nil, err
	}
	lastSeen, err := parseTime(r.LastSeen)
	if err != nil {
		return nil, err
	}
	return &domain.Device{
		MAC:       r.MAC,
		Hostname:  nullToString(r.Hostname),
		APMAC:     nullToString(r.APMAC),
		SwitchMAC: nullToString(r.SwitchMAC),
		IP:        nullToString(r.IP),
		FirstSeen: firstSeen,
		LastSeen:  lastSeen,
		Label:     nullToString(r.Label),
	}, nil
}

// snapshotRow holds all columns from a snapshot query for scanning
type snapshotRow struct {
	ID        int64
	TS        string
	GraphJSON string
}

func (r *snapshotRow) scanArgs() []interface{} {
	return []interface{}{&r.ID, &r.TS, &r.GraphJSON}
}

func (r *snapshotRow) toDomain() (*domain.Snapshot, error) {
	ts, err := parseTime(r.TS)
	if err != nil {
		return nil, err
	}
	return &domain.Snapshot{
		ID:        r.ID,
		Timestamp: ts,
		GraphJSON: []byte(r.GraphJSON),
	}, nil
}

package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Repository implements repository.Repository using SQLite
type Repository struct {
	db *sql.DB
}

// New opens the database at dbPath and migrates the schema.
// ":memory:" gives a private in-memory database.
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection serializes writers and keeps :memory: databases alive
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

// NewWithDB wraps an already configured handle without migrating it
func NewWithDB(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS devices (
		mac TEXT PRIMARY KEY,
		hostname TEXT,
		first_seen TEXT NOT NULL,
		last_seen TEXT NOT NULL,
		ap_mac TEXT,
		switch_mac TEXT,
		ip TEXT
	);

	CREATE TABLE IF NOT EXISTS topology_snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ts TEXT NOT NULL,
		graph_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS labels (
		mac TEXT PRIMARY KEY REFERENCES devices(mac) ON DELETE CASCADE,
		label TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_topology_snapshots_ts ON topology_snapshots(ts);

	CREATE TRIGGER IF NOT EXISTS topology_snapshots_no_update
	BEFORE UPDATE ON topology_snapshots
	BEGIN
		SELECT RAISE(ABORT, 'topology snapshots are append-only');
	END;

	CREATE TRIGGER IF NOT EXISTS topology_snapshots_no_delete
	BEFORE DELETE ON topology_snapshots
	BEGIN
		SELECT RAISE(ABORT, 'topology snapshots are append-only');
	END;
	`

	_, err := r.db.Exec(schema)
	return err
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}

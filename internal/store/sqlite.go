// Package store provides SQLite-backed persistence for the Argus audit
// trail. Agent state itself is never persisted here; only dispatched
// control commands and mission creations are recorded, for operator
// forensics.
package store

import (
	"database/sql"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the audit persistence layer.
type Store struct {
	db *sql.DB
}

// New creates a new Store, initializing the database if needed.
func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- Dispatched control commands
	CREATE TABLE IF NOT EXISTS control_commands (
		id         TEXT PRIMARY KEY,
		action     TEXT NOT NULL,
		backend    TEXT NOT NULL,
		native_id  TEXT NOT NULL,
		outcome    TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Mission creation attempts
	CREATE TABLE IF NOT EXISTS mission_audit (
		id         TEXT PRIMARY KEY,
		title      TEXT NOT NULL,
		backend    TEXT NOT NULL,
		remote_id  TEXT,
		outcome    TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_commands_created ON control_commands(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

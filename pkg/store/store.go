// Package store provides SQLite persistence for the cellar.
//
// The whole cellar is loaded into memory with [Store.Load]; the changes a
// session makes are written back with [Store.Commit] in one transaction.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	_ "modernc.org/sqlite"

	"github.com/matzehuels/cellar/pkg/errors"
)

const memory = ":memory:"

// dateFormat is how acquisition and consumption dates are stored.
const dateFormat = time.DateOnly

// Store handles SQLite persistence. Methods are safe for concurrent use.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	logger *log.Logger
	path   string
}

// Open opens or creates the database at dbPath and creates missing tables.
// ":memory:" opens a shared in-memory database. A nil logger means
// log.Default().
func Open(dbPath string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.Default()
	}

	connStr := dbPath
	if dbPath == memory {
		connStr = "file::memory:?cache=shared"
	} else if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "create database directory")
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "open database")
	}

	// One connection keeps per-connection pragmas in force and serializes
	// writers; the cellar has a single user.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "ping database")
	}

	pragmas := []string{"PRAGMA foreign_keys = ON"}
	if dbPath != memory {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL")
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, errors.Wrap(errors.ErrCodeStorage, err, "%s", p)
		}
	}

	s := &Store{db: db, logger: logger, path: dbPath}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "create tables")
	}

	logger.Debug("opened database", "path", dbPath)
	return s, nil
}

// Path returns the database path given to [Open].
func (s *Store) Path() string { return s.path }

// createTables creates the required tables and indexes if they don't exist.
func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS regions (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		country TEXT NOT NULL,
		UNIQUE (name, country)
	);

	CREATE TABLE IF NOT EXISTS wineries (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		region_id INTEGER NOT NULL REFERENCES regions(id)
	);

	CREATE TABLE IF NOT EXISTS varietals (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		boldness INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS labels (
		id INTEGER PRIMARY KEY,
		winery_id INTEGER NOT NULL REFERENCES wineries(id),
		name TEXT NOT NULL,
		vintage INTEGER NOT NULL,
		abv REAL NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS blends (
		label_id INTEGER NOT NULL REFERENCES labels(id),
		varietal_id INTEGER NOT NULL REFERENCES varietals(id),
		portion INTEGER NOT NULL CHECK (portion > 0),
		PRIMARY KEY (label_id, varietal_id)
	);

	CREATE TABLE IF NOT EXISTS bottles (
		id INTEGER PRIMARY KEY,
		label_id INTEGER NOT NULL REFERENCES labels(id),
		cost REAL NOT NULL,
		acquired_on TEXT NOT NULL,
		consumed_on TEXT,
		hold_until INTEGER NOT NULL,
		pos_boldness INTEGER,
		pos_cost INTEGER,
		pos_hold INTEGER,
		CHECK ((pos_boldness IS NULL) = (pos_cost IS NULL)
			AND (pos_cost IS NULL) = (pos_hold IS NULL))
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_bottles_slot
		ON bottles(pos_boldness, pos_cost, pos_hold)
		WHERE consumed_on IS NULL AND pos_boldness IS NOT NULL;
	CREATE INDEX IF NOT EXISTS idx_bottles_label ON bottles(label_id);

	CREATE TABLE IF NOT EXISTS change_sessions (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		committed_at TEXT NOT NULL,
		summary TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS position_changes (
		session_id TEXT NOT NULL REFERENCES change_sessions(id),
		bottle_id INTEGER NOT NULL REFERENCES bottles(id),
		from_boldness INTEGER,
		from_cost INTEGER,
		from_hold INTEGER,
		to_boldness INTEGER,
		to_cost INTEGER,
		to_hold INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_position_changes_bottle ON position_changes(bottle_id);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// withTx runs fn in a transaction and rolls back when it fails.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "begin transaction")
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "commit transaction")
	}
	return nil
}

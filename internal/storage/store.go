// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/datawise-tui/internal/api"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrNotFound      = errors.New("not found in cache")
	ErrDatabaseError = errors.New("database error")
)

// =============================================================================
// SCHEMA
// =============================================================================

const schema = `
CREATE TABLE IF NOT EXISTS metadata (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP,
	synced_at  TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS history (
	session_id TEXT NOT NULL,
	position   INTEGER NOT NULL,
	query      TEXT NOT NULL,
	response   TEXT NOT NULL,
	created_at TIMESTAMP,
	PRIMARY KEY (session_id, position)
);

CREATE INDEX IF NOT EXISTS idx_history_session ON history(session_id);
`

const sessionIDKey = "session_id"

// =============================================================================
// STORE
// =============================================================================

// Store is the local SQLite cache.
type Store struct {
	db   *sql.DB
	path string
}

// DefaultPath returns the database location under the app directory.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}
	return filepath.Join(home, ".datawise", "datawise.db"), nil
}

// Open opens (or creates) the cache database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// =============================================================================
// SESSION ID CACHE
// =============================================================================

// CachedSessionID returns the session ID saved by the previous run.
func (s *Store) CachedSessionID() (string, error) {
	var id string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", sessionIDKey).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return id, nil
}

// SaveSessionID records the active session ID for the next run.
func (s *Store) SaveSessionID(id string) error {
	_, err := s.db.Exec(
		"INSERT INTO metadata (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		sessionIDKey, id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return nil
}

// =============================================================================
// SESSION DIRECTORY MIRROR
// =============================================================================

// MirrorSessions replaces the cached session directory with a fresh
// backend listing.
func (s *Store) MirrorSessions(sessions []api.SessionInfo) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM sessions"); err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	now := time.Now().UTC()
	for _, sess := range sessions {
		if _, err := tx.Exec(
			"INSERT INTO sessions (id, title, created_at, synced_at) VALUES (?, ?, ?, ?)",
			sess.ID, sess.Title, sess.CreatedAt, now); err != nil {
			return fmt.Errorf("%w: %v", ErrDatabaseError, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return nil
}

// Sessions returns the cached session directory, most recent first,
// matching the backend's ordering.
func (s *Store) Sessions() ([]api.SessionInfo, error) {
	rows, err := s.db.Query(
		"SELECT id, title, created_at FROM sessions ORDER BY created_at DESC, id")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	var sessions []api.SessionInfo
	for rows.Next() {
		var sess api.SessionInfo
		var created sql.NullTime
		if err := rows.Scan(&sess.ID, &sess.Title, &created); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
		}
		if created.Valid {
			sess.CreatedAt = created.Time
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return sessions, nil
}

// DeleteSession removes a session and its cached history, mirroring a
// backend-side delete.
func (s *Store) DeleteSession(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM sessions WHERE id = ?", id); err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	if _, err := tx.Exec("DELETE FROM history WHERE session_id = ?", id); err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return nil
}

// =============================================================================
// HISTORY CACHE
// =============================================================================

// CacheHistory replaces the cached history for a session. Turns must
// already be in chronological order.
func (s *Store) CacheHistory(sessionID string, turns []api.HistoryTurn) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM history WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	for i, turn := range turns {
		if _, err := tx.Exec(
			"INSERT INTO history (session_id, position, query, response, created_at) VALUES (?, ?, ?, ?, ?)",
			sessionID, i, turn.Query, turn.Response, turn.CreatedAt); err != nil {
			return fmt.Errorf("%w: %v", ErrDatabaseError, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return nil
}

// CachedHistory returns the cached turns for a session in
// chronological order. An empty cache is not an error; callers fall
// back to the backend.
func (s *Store) CachedHistory(sessionID string) ([]api.HistoryTurn, error) {
	rows, err := s.db.Query(
		"SELECT query, response, created_at FROM history WHERE session_id = ? ORDER BY position",
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	var turns []api.HistoryTurn
	for rows.Next() {
		var turn api.HistoryTurn
		var created sql.NullTime
		if err := rows.Scan(&turn.Query, &turn.Response, &created); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
		}
		if created.Valid {
			turn.CreatedAt = created.Time
		}
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return turns, nil
}

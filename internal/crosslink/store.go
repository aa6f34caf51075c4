// Package crosslink maintains the note-identity map that turns internal
// note references into output paths.
package crosslink

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/ansuz/internal/apperr"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS crosslinks (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL DEFAULT ''
);
`

// Store is a flat string-keyed, string-valued map backed by SQLite.
//
// Two sub-relations share the keyspace: identity keys (note path
// without extension, empty value) and reference keys (referring note's
// full path, raw reference token as value). The table is truncated on
// open; the map is rebuilt from scratch every run so stale entries
// cannot leak across conversions.
type Store struct {
	conn *sql.DB
}

// Open opens (or creates) the store at dsn, applies the schema, and
// truncates any contents left by a previous run.
func Open(dsn string) (*Store, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("crosslink: open store: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("crosslink: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("crosslink: apply schema: %w", err)
	}
	if _, err := conn.Exec(`DELETE FROM crosslinks`); err != nil {
		conn.Close()
		return nil, fmt.Errorf("crosslink: truncate: %w", err)
	}
	return &Store{conn: conn}, nil
}

// Set inserts or replaces one mapping.
func (s *Store) Set(key, value string) error {
	_, err := s.conn.Exec(`
		INSERT INTO crosslinks (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("crosslink: set %q: %w", key, err)
	}
	return nil
}

// Get returns the value stored under key, or ErrNotFound.
func (s *Store) Get(key string) (string, error) {
	var v string
	err := s.conn.QueryRow(`SELECT value FROM crosslinks WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("crosslink: get %q: %w", key, apperr.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("crosslink: get %q: %w", key, err)
	}
	return v, nil
}

// Keys returns every key in stable (sorted) order.
func (s *Store) Keys() ([]string, error) {
	rows, err := s.conn.Query(`SELECT key FROM crosslinks ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("crosslink: keys: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// Resolve maps a raw reference token to the identity that claimed it.
//
// It scans all keys in stable order and returns the first key whose
// stored value ends with ref, together with that value. When nothing
// matches, ref is handed back unresolved with an empty value; callers
// must treat that pair as "leave the reference alone".
func (s *Store) Resolve(ref string) (string, string, error) {
	rows, err := s.conn.Query(`SELECT key, value FROM crosslinks ORDER BY key`)
	if err != nil {
		return "", "", fmt.Errorf("crosslink: resolve: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return "", "", err
		}
		if v != "" && strings.HasSuffix(v, ref) {
			return k, v, nil
		}
	}
	if err := rows.Err(); err != nil {
		return "", "", err
	}
	return ref, "", nil
}

// Flush checkpoints the WAL so the map survives an unclean shutdown.
// Best effort: the in-memory handle stays usable when it fails.
func (s *Store) Flush() error {
	if _, err := s.conn.Exec(`PRAGMA wal_checkpoint(TRUNCATE)`); err != nil {
		return fmt.Errorf("crosslink: flush: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Package eventlog persists a diagnostic trail of load and search events to
// SQLite. The table is append-only: the application writes it for operators
// to inspect with the sqlite3 shell and never reads it back. The same file
// also carries the current source URL so a manual override survives restarts.
package eventlog

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Event kinds.
const (
	KindLoad    = "load"
	KindRefresh = "refresh"
	KindSearch  = "search"
	KindUpload  = "upload"
)

// Log wraps the SQLite handle. A nil *Log is a valid no-op sink, so callers
// that run without persistence skip the nil checks.
type Log struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at path and ensures the
// events and source tables exist.
func Open(path string) (*Log, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}

	const ddl = `
	CREATE TABLE IF NOT EXISTS events (
		id     INTEGER PRIMARY KEY AUTOINCREMENT,
		ts     INTEGER NOT NULL,
		kind   TEXT NOT NULL,
		detail TEXT NOT NULL DEFAULT '',
		error  TEXT
	);
	CREATE TABLE IF NOT EXISTS source (
		id         INTEGER PRIMARY KEY CHECK (id = 1),
		url        TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	)`
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("create event log tables: %w", err)
	}

	return &Log{db: db}, nil
}

// Close closes the SQLite handle.
func (l *Log) Close() error {
	if l == nil {
		return nil
	}
	return l.db.Close()
}

// Record appends one event. errMsg is empty for successful events.
func (l *Log) Record(kind, detail, errMsg string) error {
	if l == nil {
		return nil
	}
	var errPtr *string
	if errMsg != "" {
		errPtr = &errMsg
	}
	_, err := l.db.Exec(
		`INSERT INTO events (ts, kind, detail, error) VALUES (?, ?, ?, ?)`,
		time.Now().Unix(), kind, detail, errPtr,
	)
	if err != nil {
		return fmt.Errorf("record %s event: %w", kind, err)
	}
	return nil
}

// SeedSource inserts the configured source URL unless a row already exists,
// so a URL set manually in the database wins over the config file.
func (l *Log) SeedSource(url string) error {
	if l == nil {
		return nil
	}
	_, err := l.db.Exec(
		`INSERT OR IGNORE INTO source (id, url, updated_at) VALUES (1, ?, ?)`,
		url, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("seed source url: %w", err)
	}
	return nil
}

// SourceURL returns the effective source URL, or "" when none is stored.
func (l *Log) SourceURL() (string, error) {
	if l == nil {
		return "", nil
	}
	var url string
	err := l.db.QueryRow(`SELECT url FROM source WHERE id = 1`).Scan(&url)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get source url: %w", err)
	}
	return url, nil
}

// SetSourceURL replaces the stored source URL.
func (l *Log) SetSourceURL(url string) error {
	if l == nil {
		return nil
	}
	_, err := l.db.Exec(
		`INSERT INTO source (id, url, updated_at) VALUES (1, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET url = excluded.url, updated_at = excluded.updated_at`,
		url, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("set source url: %w", err)
	}
	return nil
}

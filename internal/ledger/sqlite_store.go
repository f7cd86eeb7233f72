package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/pagegen/internal/retry"
)

// SQLiteStore keeps the ledger in a SQLite database, one row per output file.
// Writes that find the database locked by another pagegen process are
// retried with backoff.
type SQLiteStore struct {
	path   string
	policy retry.Policy
	mu     sync.Mutex
	db     *sql.DB
}

// NewSQLiteStore returns a store backed by the database at path. The
// database is opened lazily so a missing file can be reported as absent.
func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path, policy: retry.DefaultPolicy()}
}

// busy reports whether err is SQLite lock contention.
func busy(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}

func (s *SQLiteStore) open(ctx context.Context) (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db, nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return nil, fmt.Errorf("create ledger directory: %w", err)
	}
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	schema := `
	CREATE TABLE IF NOT EXISTS ledger (
		path TEXT PRIMARY KEY,
		digest TEXT NOT NULL
	);`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, &CorruptError{Location: s.path, Err: err}
	}
	s.db = db
	return db, nil
}

// Load implements Store.
func (s *SQLiteStore) Load(ctx context.Context) (map[string]string, error) {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return nil, ErrAbsent
	}
	db, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, "SELECT path, digest FROM ledger")
	if err != nil {
		return nil, &CorruptError{Location: s.path, Err: err}
	}
	defer func() { _ = rows.Close() }()

	entries := make(map[string]string)
	for rows.Next() {
		var path, digest string
		if err := rows.Scan(&path, &digest); err != nil {
			return nil, &CorruptError{Location: s.path, Err: err}
		}
		entries[path] = digest
	}
	if err := rows.Err(); err != nil {
		return nil, &CorruptError{Location: s.path, Err: err}
	}
	return entries, nil
}

// Save implements Store.
func (s *SQLiteStore) Save(ctx context.Context, entries map[string]string) error {
	db, err := s.open(ctx)
	if err != nil {
		return err
	}
	return s.policy.Do(ctx, busy, func() error { return saveEntries(ctx, db, entries) })
}

func saveEntries(ctx context.Context, db *sql.DB, entries map[string]string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM ledger"); err != nil {
		return fmt.Errorf("clear ledger: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO ledger (path, digest) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()
	for path, digest := range entries {
		if _, err := stmt.ExecContext(ctx, path, digest); err != nil {
			return fmt.Errorf("insert %s: %w", path, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ledger: %w", err)
	}
	return nil
}

// Location implements Store.
func (s *SQLiteStore) Location() string { return s.path }

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

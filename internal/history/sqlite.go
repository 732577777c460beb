package history

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	pserrors "git.home.luguber.info/inful/pagesmith/internal/errors"
)

// SQLiteStore implements Recorder using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (creating if needed) the ledger at dbPath.
// Use ":memory:" for an in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, pserrors.FileSystemError("create", filepath.Dir(dbPath), err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, storeError("open sqlite database", dbPath, err)
	}
	// a single connection keeps ":memory:" databases shared
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, storeError("initialize schema", dbPath, err)
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL UNIQUE,
		status TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		ended_at INTEGER NOT NULL,
		pages INTEGER NOT NULL,
		assets INTEGER NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		fingerprint TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_builds_started_at ON builds(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// RecordBuild implements Recorder.
func (s *SQLiteStore) RecordBuild(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO builds (build_id, status, started_at, ended_at, pages, assets, error, fingerprint)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.BuildID, rec.Status, rec.StartedAt.UnixMilli(), rec.EndedAt.UnixMilli(),
		rec.Pages, rec.Assets, rec.Error, rec.Fingerprint,
	)
	if err != nil {
		return storeError("insert build", rec.BuildID, err)
	}
	return nil
}

// Recent returns up to n records, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, n int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT build_id, status, started_at, ended_at, pages, assets, error, fingerprint
		 FROM builds ORDER BY started_at DESC, id DESC LIMIT ?`, n)
	if err != nil {
		return nil, storeError("query builds", "", err)
	}
	defer func() { _ = rows.Close() }()

	var records []Record
	for rows.Next() {
		var r Record
		var started, ended int64
		if err := rows.Scan(&r.BuildID, &r.Status, &started, &ended, &r.Pages, &r.Assets, &r.Error, &r.Fingerprint); err != nil {
			return nil, storeError("scan build", "", err)
		}
		r.StartedAt = time.UnixMilli(started).UTC()
		r.EndedAt = time.UnixMilli(ended).UTC()
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("iterate builds", "", err)
	}
	return records, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

func storeError(msg, subject string, cause error) error {
	b := pserrors.WrapError(cause, pserrors.CategoryRuntime, msg)
	if subject != "" {
		b = b.WithContext("subject", subject)
	}
	return b.Build()
}

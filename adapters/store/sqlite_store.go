package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/layer-3/xamanauth/core"
	"github.com/layer-3/xamanauth/ports"
	_ "modernc.org/sqlite"
)

const sessionSchema = `CREATE TABLE IF NOT EXISTS wallet_sessions (
	record_key TEXT PRIMARY KEY,
	record     BLOB NOT NULL,
	updated_at INTEGER NOT NULL
)`

// SQLiteStore keeps the session record in a single-row SQLite table
type SQLiteStore struct {
	sqlDB *sql.DB
	key   string
}

var _ ports.SessionStore = (*SQLiteStore)(nil)

// OpenSQLiteStore opens the database at path and ensures the schema exists
func OpenSQLiteStore(path, key string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if key == "" {
		key = DefaultKey
	}

	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(sessionSchema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create session table: %w", err)
	}
	return &SQLiteStore{sqlDB: sqlDB, key: key}, nil
}

// Close closes the SQLite handle
func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Restore loads the session row
func (s *SQLiteStore) Restore(ctx context.Context) (*core.Session, error) {
	var record []byte
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT record FROM wallet_sessions WHERE record_key = ?`, s.key,
	).Scan(&record)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return restoreRecord(ctx, record, s.Clear)
}

// Save upserts the session row
func (s *SQLiteStore) Save(ctx context.Context, session core.Session) error {
	data, err := encodeSession(session)
	if err != nil {
		return err
	}
	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO wallet_sessions (record_key, record, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(record_key) DO UPDATE SET record = excluded.record, updated_at = excluded.updated_at`,
		s.key, data, time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Clear deletes the session row
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM wallet_sessions WHERE record_key = ?`, s.key); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}


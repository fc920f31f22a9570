// Package sqlite provides a file-backed collection store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS collections (
	name       TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	updated_at INTEGER NOT NULL
)`

// CollectionStore persists collections as rows of a single SQLite table.
type CollectionStore struct {
	db *sqlx.DB
}

// Open opens (creating if needed) the database at path and ensures the schema.
func Open(path string) (*CollectionStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	dsn := cleanPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// SQLite doesn't support multiple writers
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create collections table: %w", err)
	}
	return &CollectionStore{db: db}, nil
}

// Close closes the SQLite handle.
func (s *CollectionStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *CollectionStore) Get(ctx context.Context, collection string) ([]byte, error) {
	var data string
	err := s.db.GetContext(ctx, &data, `SELECT data FROM collections WHERE name = ?`, collection)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select collection: %w", err)
	}
	return []byte(data), nil
}

func (s *CollectionStore) Put(ctx context.Context, collection string, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO collections (name, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		collection, string(data), time.Now().UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("upsert collection: %w", err)
	}
	return nil
}

func (s *CollectionStore) Delete(ctx context.Context, collection string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM collections WHERE name = ?`, collection); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	return nil
}

// Usage relies on LENGTH counting characters for TEXT values.
func (s *CollectionStore) Usage(ctx context.Context) (int64, error) {
	var total int64
	err := s.db.GetContext(ctx, &total, `SELECT COALESCE(SUM(LENGTH(name) + LENGTH(data)), 0) FROM collections`)
	if err != nil {
		return 0, fmt.Errorf("sum collection sizes: %w", err)
	}
	return total, nil
}

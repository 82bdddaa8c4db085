// Copyright 2026 The pulsefitLocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS collections (
	key TEXT PRIMARY KEY,
	content BLOB NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

// SQLiteStore keeps every payload in a single SQLite database file, one row
// per key. It satisfies the same contract as FileStore and is selected with
// store-backend: "sqlite".
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath and ensures the
// schema exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("sqlitestore: database path cannot be empty")
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: open %s: %w", dbPath, err)
	}
	// A single writer avoids SQLITE_BUSY on overlapping calls.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlitestore: create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// NewSQLiteStoreWithDB wraps an existing database handle. Used by tests to
// inject a mock connection; the schema is assumed to exist.
func NewSQLiteStoreWithDB(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetRaw implements Store.
func (s *SQLiteStore) GetRaw(ctx context.Context, key Key) ([]byte, bool, error) {
	var content []byte
	err := s.db.QueryRowContext(ctx, "SELECT content FROM collections WHERE key = ?", string(key)).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("sqlitestore: read %s: %w", key, err)
	}
	return content, true, nil
}

// SetRaw implements Store.
func (s *SQLiteStore) SetRaw(ctx context.Context, key Key, raw []byte) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO collections (key, content, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP) "+
			"ON CONFLICT(key) DO UPDATE SET content = excluded.content, updated_at = CURRENT_TIMESTAMP",
		string(key), raw)
	if err != nil {
		return fmt.Errorf("sqlitestore: write %s: %w", key, err)
	}
	return nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, key Key) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM collections WHERE key = ?", string(key)); err != nil {
		return fmt.Errorf("sqlitestore: delete %s: %w", key, err)
	}
	return nil
}

// Keys implements Store.
func (s *SQLiteStore) Keys(ctx context.Context) ([]Key, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key FROM collections ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: list keys: %w", err)
	}
	defer rows.Close()

	var keys []Key
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("sqlitestore: scan key: %w", err)
		}
		keys = append(keys, Key(k))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlitestore: iterate keys: %w", err)
	}
	return keys, nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error { return s.db.Close() }

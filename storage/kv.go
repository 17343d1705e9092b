// Package storage persists small named values in a local SQLite database.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by Get for a key that was never written or was deleted.
var ErrNotFound = errors.New("storage: key not found")

// KVStore is a string-keyed blob table.
type KVStore struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at dbPath.
func Open(dbPath string) (*KVStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &KVStore{db: db}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := os.Chmod(dbPath, 0600); err != nil && !os.IsNotExist(err) {
		db.Close()
		return nil, fmt.Errorf("failed to secure database file: %w", err)
	}
	return store, nil
}

func (s *KVStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Get returns the value stored under key, or ErrNotFound.
func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", key, err)
	}
	return value, nil
}

// Entry is one key/value pair for SetMany. A nil Value deletes the key.
type Entry struct {
	Key   string
	Value []byte
}

// SetMany applies every entry in one transaction.
func (s *KVStore) SetMany(ctx context.Context, entries ...Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, e := range entries {
		if e.Value == nil {
			if _, err := tx.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, e.Key); err != nil {
				return fmt.Errorf("failed to delete %q: %w", e.Key, err)
			}
			continue
		}

		_, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO kv (key, value) VALUES (?, ?)`,
			e.Key, e.Value,
		)
		if err != nil {
			return fmt.Errorf("failed to write %q: %w", e.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func (s *KVStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

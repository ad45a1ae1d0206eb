package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore implements MetadataStore using SQLite
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store and applies migrations
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS group_meta (
		scope TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (scope, key)
	);
	`
	_, err := s.db.Exec(query)
	return err
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Get retrieves a value by scope and key
func (s *SQLiteStore) Get(ctx context.Context, scope, key string) (string, bool, error) {
	query := `SELECT value FROM group_meta WHERE scope = ? AND key = ?`
	var value string
	err := s.db.QueryRowContext(ctx, query, scope, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set upserts a value
func (s *SQLiteStore) Set(ctx context.Context, scope, key, value string) error {
	query := `INSERT INTO group_meta (scope, key, value, created_at) VALUES (?, ?, ?, ?)
			  ON CONFLICT(scope, key) DO UPDATE SET value = excluded.value`
	_, err := s.db.ExecContext(ctx, query, scope, key, value, time.Now())
	return err
}

// Delete removes a value by scope and key
func (s *SQLiteStore) Delete(ctx context.Context, scope, key string) error {
	query := `DELETE FROM group_meta WHERE scope = ? AND key = ?`
	_, err := s.db.ExecContext(ctx, query, scope, key)
	return err
}

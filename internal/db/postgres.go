package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"
)

// PostgresStore implements MetadataStore using PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store and applies migrations
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

func (s *PostgresStore) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS group_meta (
			scope TEXT NOT NULL,
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (scope, key)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_group_meta_key ON group_meta(key)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			slog.Debug("migration step failed", "error", err)
			return err
		}
	}
	return nil
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Get retrieves a value by scope and key
func (s *PostgresStore) Get(ctx context.Context, scope, key string) (string, bool, error) {
	query := `SELECT value FROM group_meta WHERE scope = $1 AND key = $2`
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
func (s *PostgresStore) Set(ctx context.Context, scope, key, value string) error {
	query := `INSERT INTO group_meta (scope, key, value, created_at) VALUES ($1, $2, $3, NOW())
			  ON CONFLICT (scope, key) DO UPDATE SET value = $3`
	_, err := s.db.ExecContext(ctx, query, scope, key, value)
	return err
}

// Delete removes a value by scope and key
func (s *PostgresStore) Delete(ctx context.Context, scope, key string) error {
	query := `DELETE FROM group_meta WHERE scope = $1 AND key = $2`
	_, err := s.db.ExecContext(ctx, query, scope, key)
	return err
}

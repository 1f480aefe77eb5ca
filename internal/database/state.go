package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// KV is durable key/value storage for the dashboard's state records. Every
// logical collection is one record holding JSON text.
type KV interface {
	// Get returns the value stored under key. found is false when the key is absent.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	// Set stores value under key, replacing any previous value
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Ping verifies the backend is reachable
	Ping(ctx context.Context) error
	Close() error
}

// StateRepository stores state records in a SQL table
type StateRepository struct {
	db *DB
}

// NewStateRepository creates a new state repository
func NewStateRepository(db *DB) *StateRepository {
	return &StateRepository{db: db}
}

// Get retrieves a record
func (r *StateRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx, r.db.rebind(`SELECT value FROM state_records WHERE key = ?`), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get state record %s: %w", key, err)
	}
	return value, true, nil
}

// Set upserts a record
func (r *StateRepository) Set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, r.db.rebind(`
		INSERT INTO state_records (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`), key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to set state record %s: %w", key, err)
	}
	return nil
}

// Delete removes a record
func (r *StateRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, r.db.rebind(`DELETE FROM state_records WHERE key = ?`), key); err != nil {
		return fmt.Errorf("failed to delete state record %s: %w", key, err)
	}
	return nil
}

// Ping checks the connection
func (r *StateRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the underlying connection pool
func (r *StateRepository) Close() error {
	return r.db.Close()
}

var _ KV = (*StateRepository)(nil)

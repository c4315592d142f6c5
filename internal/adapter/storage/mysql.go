package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cartsync/internal/port"
)

const createMySQLTable = `
CREATE TABLE IF NOT EXISTS kv_entries (
	k VARCHAR(191) PRIMARY KEY,
	v LONGTEXT NOT NULL,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
)`

// MySQLStore keeps values in a single kv table, mirroring the string-only
// contract of the device store.
type MySQLStore struct {
	db *sql.DB
}

func NewMySQLStore(ctx context.Context, db *sql.DB) (*MySQLStore, error) {
	if _, err := db.ExecContext(ctx, createMySQLTable); err != nil {
		return nil, fmt.Errorf("create kv table: %w", err)
	}
	return &MySQLStore{db: db}, nil
}

func (s *MySQLStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT v FROM kv_entries WHERE k = ?`, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", port.ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("query kv entry: %w", err)
	}
	return value, nil
}

func (s *MySQLStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv_entries (k, v) VALUES (?, ?)
		ON DUPLICATE KEY UPDATE v = VALUES(v)`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("upsert kv entry: %w", err)
	}
	return nil
}

func (s *MySQLStore) Remove(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv_entries WHERE k = ?`, key); err != nil {
		return fmt.Errorf("delete kv entry: %w", err)
	}
	return nil
}

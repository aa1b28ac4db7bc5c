package objectstore

import (
	"context"
	"errors"
	"fmt"

	"license-server/pkg/database"

	"github.com/jackc/pgx/v5"
)

const createObjectsTable = `
	CREATE TABLE IF NOT EXISTS objects (
		key        TEXT PRIMARY KEY,
		data       BYTEA NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

// PostgresStore keeps objects as rows of a single objects table.
type PostgresStore struct {
	db database.PgxIface
}

// NewPostgresStore creates the objects table when it does not exist yet.
func NewPostgresStore(ctx context.Context, db database.PgxIface) (*PostgresStore, error) {
	if _, err := db.Exec(ctx, createObjectsTable); err != nil {
		return nil, fmt.Errorf("create objects table: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	query := `
		SELECT key
		FROM objects
		WHERE left(key, length($1)) = $1
		ORDER BY key
	`

	rows, err := s.db.Query(ctx, query, prefix)
	if err != nil {
		return nil, fmt.Errorf("list keys with prefix %q: %w", prefix, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate keys: %w", err)
	}

	return keys, nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	query := `SELECT data FROM objects WHERE key = $1`

	var data []byte
	err := s.db.QueryRow(ctx, query, key).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	return data, nil
}

func (s *PostgresStore) Put(ctx context.Context, key string, data []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}

	query := `
		INSERT INTO objects (key, data, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE
		SET data = EXCLUDED.data,
		    updated_at = EXCLUDED.updated_at
	`

	if _, err := s.db.Exec(ctx, query, key, data); err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

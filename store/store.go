package store

import (
	"context"
	"database/sql"
	_ "embed"

	"github.com/go-faster/errors"
	_ "github.com/lib/pq"
)

//go:embed migrations.sql
var migrationSQL string

// PostgresStore is a Store backed by the cart_snapshots table.
type PostgresStore struct {
	DB *sql.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	DB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}
	if err := DB.Ping(); err != nil {
		_ = DB.Close()
		return nil, errors.Wrap(err, "ping postgres")
	}
	return &PostgresStore{DB: DB}, nil
}

// Migrate creates the snapshot table when it does not exist yet.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, migrationSQL); err != nil {
		return errors.Wrap(err, "run migrations")
	}
	return nil
}

func (s *PostgresStore) Close() error { return s.DB.Close() }

func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := s.DB.QueryRowContext(ctx, `SELECT value FROM cart_snapshots WHERE key=$1`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get %q", key)
	}
	return []byte(value), nil
}

// Set upserts the value; the previous value for key is replaced whole.
func (s *PostgresStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO cart_snapshots (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`, key, string(value))
	if err != nil {
		return errors.Wrapf(err, "set %q", key)
	}
	return nil
}

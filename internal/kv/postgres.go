package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `CREATE TABLE IF NOT EXISTS kv_entries (
	key        TEXT PRIMARY KEY,
	value      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

type Postgres struct {
	Db *pgxpool.Pool
}

func NewPostgres(ctx context.Context, connString string) (*Postgres, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return &Postgres{Db: pool}, nil
}

func (p *Postgres) Close() {
	p.Db.Close()
}

// EnsureSchema creates the backing table if it does not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.Db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create kv_entries: %w", err)
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := p.Db.QueryRow(ctx, "SELECT value FROM kv_entries WHERE key = $1", key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (p *Postgres) Set(ctx context.Context, key string, value []byte) error {
	_, err := p.Db.Exec(ctx,
		`INSERT INTO kv_entries (key, value, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, string(value),
	)
	return err
}

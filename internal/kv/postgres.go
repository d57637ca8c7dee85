package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Postgres implements Store on a single upsert table.
type Postgres struct {
	db *sql.DB
}

// OpenPostgres opens a pooled connection using the pgx stdlib driver.
func OpenPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open postgres: %v", ErrUnavailable, err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return &Postgres{db: db}, nil
}

// NewPostgresFromDB wraps an existing handle. Used by tests.
func NewPostgresFromDB(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema creates the storage table when it does not exist yet.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		create table if not exists kv_entries (
			key        text primary key,
			value      bytea not null,
			updated_at timestamptz not null default now()
		)`)
	if err != nil {
		return fmt.Errorf("%w: ensure schema: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *Postgres) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `select value from kv_entries where key=$1`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return value, nil
}

func (s *Postgres) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		insert into kv_entries(key, value, updated_at)
		values ($1, $2, now())
		on conflict (key) do update
		set value = excluded.value, updated_at = now()
	`, key, value)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *Postgres) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `delete from kv_entries where key=$1`, key); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *Postgres) Close() error { return s.db.Close() }

// Ping reports backend reachability for readiness probes.
func (s *Postgres) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

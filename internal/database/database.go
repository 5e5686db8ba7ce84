// Package database owns the pgx connection pool and schema bootstrap.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a pgx connection pool using the provided DSN.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConns = 8
	cfg.MaxConnIdleTime = 5 * time.Minute
	return pgxpool.NewWithConfig(ctx, cfg)
}

// EnsureSchema creates the dogs and interactions tables if needed. Keeping the
// migration in code keeps the demo self-contained so docker-compose can
// bootstrap everything.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	const stmt = `
CREATE TABLE IF NOT EXISTS dogs (
	shelter_id TEXT NOT NULL,
	dog_id TEXT NOT NULL,
	shelter TEXT NOT NULL,
	city TEXT NOT NULL,
	state TEXT NOT NULL,
	encrypted_dog_name TEXT NOT NULL,
	species TEXT NOT NULL,
	description TEXT NOT NULL,
	dog_birthday TEXT,
	dog_weight DOUBLE PRECISION,
	dog_color TEXT,
	shelter_entry_date TEXT,
	images JSONB NOT NULL DEFAULT '[]'::jsonb,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (shelter_id, dog_id)
);
CREATE INDEX IF NOT EXISTS idx_dogs_state ON dogs(state);
CREATE TABLE IF NOT EXISTS interactions (
	user_id TEXT NOT NULL,
	dog_key TEXT NOT NULL,
	shelter_id TEXT NOT NULL,
	dog_id TEXT NOT NULL,
	interaction_type TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (user_id, dog_key)
);`
	_, err := pool.Exec(ctx, stmt)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

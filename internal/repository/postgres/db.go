package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
)

func InitDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migrateDB(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	slog.Info("Database connected and migrated")
	return db, nil
}

func migrateDB(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			stream_id TEXT NOT NULL,
			stream_type TEXT NOT NULL,
			version INT NOT NULL,
			event_type TEXT NOT NULL,
			payload JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (stream_id, version)
		);

		CREATE TABLE IF NOT EXISTS gateway_orders (
			order_id TEXT PRIMARY KEY,
			checkout_id TEXT NOT NULL,
			session_id TEXT NOT NULL DEFAULT '',
			game_slug TEXT NOT NULL,
			item_slug TEXT NOT NULL,
			payment_method TEXT NOT NULL,
			total NUMERIC(12, 2) NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'redirected',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		ALTER TABLE gateway_orders ADD COLUMN IF NOT EXISTS session_id TEXT NOT NULL DEFAULT '';

		CREATE INDEX IF NOT EXISTS gateway_orders_created_at_idx ON gateway_orders (created_at DESC);
		CREATE INDEX IF NOT EXISTS gateway_orders_session_idx ON gateway_orders (session_id, created_at DESC);
	`)
	return err
}

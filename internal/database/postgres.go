package database

import (
	"context"
	"fmt"
	"time"

	"kata/internal/config"
	"kata/internal/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// New builds the application connection pool from the environment.
func New(ctx context.Context) (*pgxpool.Pool, error) {
	host, port, user, password, databaseName := config.DatabaseConfig()

	if host == "" || port == "" || user == "" || databaseName == "" {
		return nil, fmt.Errorf("missing required database configuration")
	}

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, databaseName)

	cfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	cfg.MaxConns = 25
	cfg.MinConns = 5
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = time.Minute * 30
	cfg.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Get().Info("Database connection successful")
	return pool, nil
}

// InitSchema creates the tables the service owns. User accounts live with
// the hosted auth provider; user_id columns hold its opaque subject ids.
func InitSchema(ctx context.Context, pool *pgxpool.Pool) error {
	schema := `
	CREATE TABLE IF NOT EXISTS media_items (
		id UUID PRIMARY KEY,
		user_id TEXT NOT NULL,
		type TEXT NOT NULL,
		title TEXT NOT NULL,
		cover_url TEXT,
		status TEXT NOT NULL,
		rating DOUBLE PRECISION,
		author TEXT,
		platform TEXT,
		release_year INTEGER,
		genres TEXT[],
		review TEXT,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_media_items_user_id ON media_items(user_id);
	CREATE INDEX IF NOT EXISTS idx_media_items_type ON media_items(type);
	CREATE INDEX IF NOT EXISTS idx_media_items_status ON media_items(status);

	CREATE TABLE IF NOT EXISTS collections (
		id UUID PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT,
		color TEXT,
		icon TEXT,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_collections_user_id ON collections(user_id);

	CREATE TABLE IF NOT EXISTS collection_items (
		collection_id UUID NOT NULL REFERENCES collections(id) ON DELETE CASCADE,
		item_id UUID NOT NULL REFERENCES media_items(id) ON DELETE CASCADE,
		added_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (collection_id, item_id)
	);
	`

	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	logger.Get().Info("Database schema initialized")
	return nil
}

// Package store implements the star-schema relational store: datetime and
// location dimensions with race-safe get-or-create resolution, and weather
// and collision fact tables with at-most-once natural-key semantics.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AZhuk30/WeatherImpactonCarAccidents/internal/config"
)

// Store wraps a PostgreSQL connection pool for a single load call. Pools are
// opened per call and closed when the call returns, so their lifetime is
// bounded by the call.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// Open creates a connection pool and verifies connectivity.
func Open(ctx context.Context, cfg config.Database, logger *slog.Logger) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConns) //nolint:gosec // bounded by config validation

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{pool: pool, logger: logger}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// EnsureSchema creates the dimension and fact tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool wraps a pgx connection pool with an explicit open/close lifecycle.
// It is constructed once in main and handed to stores; nothing reaches the
// database through package-level state.
type Pool struct {
	*pgxpool.Pool
}

// Open connects to Postgres and verifies the connection before returning.
func Open(ctx context.Context, url string) (*Pool, error) {
	if url == "" {
		return nil, fmt.Errorf("postgres URL is required")
	}

	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse postgres URL: %w", err)
	}
	cfg.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// Health checks if the database connection is healthy.
func (p *Pool) Health(ctx context.Context) error {
	return p.Ping(ctx)
}

// Close releases all pooled connections.
func (p *Pool) Close() {
	p.Pool.Close()
}

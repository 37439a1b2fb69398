// Package postgres persists combat session snapshots in PostgreSQL through
// pgx v5. The schema lives in migrations/ and is applied by cmd/migrate.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mezosauce/DNDDM-sub000/internal/config"
)

// Pool is the connection pool feeding CombatRepository.
type Pool struct {
	pool *pgxpool.Pool
}

// NewPool connects to the snapshot store described by cfg, applying its
// connection limits and lifetime, and verifies the connection with a ping.
//
// Postcondition: the returned Pool is ready for repository use; on error
// nothing is left open.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing snapshot store DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to snapshot store: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging snapshot store: %w", err)
	}

	return &Pool{pool: pool}, nil
}

// Health reports whether the snapshot store responds within the timeout.
func (p *Pool) Health(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.pool.Ping(ctx)
}

// Close releases every pooled connection. The Pool is unusable afterwards.
func (p *Pool) Close() {
	p.pool.Close()
}

// DB exposes the underlying pgxpool.Pool to the repositories.
func (p *Pool) DB() *pgxpool.Pool {
	return p.pool
}

// Package database owns the PostgreSQL pool that rankings are published to
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gpadpoll/fixed-income-fund-recsys/pkg/config"
)

// pingTimeout bounds the connectivity check done by New
const pingTimeout = 5 * time.Second

// Schema is the rankings table. (period, profile, fund) is unique, so a
// republished (period, profile) must first clear its previous rows.
const Schema = `
CREATE TABLE IF NOT EXISTS fund_profile_ranks (
    period       TEXT        NOT NULL,
    profile      TEXT        NOT NULL,
    fund         TEXT        NOT NULL,
    fund_name    TEXT        NOT NULL DEFAULT '',
    score        DOUBLE PRECISION,
    rank         INTEGER     NOT NULL,
    run_id       TEXT        NOT NULL,
    published_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (period, profile, fund)
);
CREATE INDEX IF NOT EXISTS fund_profile_ranks_rank_idx
    ON fund_profile_ranks (profile, period, rank);
`

// DB holds the connection pool
type DB struct {
	Pool *pgxpool.Pool
}

// PoolConfig turns cfg.Database into a pgxpool configuration
func PoolConfig(cfg *config.Config) (*pgxpool.Config, error) {
	if err := cfg.RequireDatabase(); err != nil {
		return nil, err
	}
	pc, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	d := cfg.Database
	pc.MaxConns, pc.MinConns = d.MaxConns, d.MinConns
	pc.MaxConnLifetime, pc.MaxConnIdleTime = d.MaxConnLifetime, d.MaxConnIdleTime
	return pc, nil
}

// New opens the pool and fails fast when the server cannot be reached
func New(ctx context.Context, cfg *config.Config) (*DB, error) {
	pc, err := PoolConfig(cfg)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping %s: %w", pc.ConnConfig.Host, err)
	}
	return &DB{Pool: pool}, nil
}

// Migrate creates the rankings table and index when missing
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.Pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close releases every connection; safe to call more than once
func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// PoolStats is a snapshot of pool usage
type PoolStats struct {
	AcquireCount  int64 `json:"acquire_count"`
	AcquiredConns int32 `json:"acquired_conns"`
	IdleConns     int32 `json:"idle_conns"`
	MaxConns      int32 `json:"max_conns"`
	TotalConns    int32 `json:"total_conns"`
}

// HealthStatus is the result of HealthCheck
type HealthStatus struct {
	Healthy   bool          `json:"healthy"`
	CheckedAt time.Time     `json:"checked_at"`
	Latency   time.Duration `json:"latency"`
	Error     string        `json:"error,omitempty"`
	Stats     PoolStats     `json:"stats"`
}

// HealthCheck pings the server and snapshots the pool
func (db *DB) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	status := &HealthStatus{CheckedAt: time.Now()}
	if err := db.Pool.Ping(ctx); err != nil {
		status.Error = err.Error()
		return status, err
	}
	status.Latency = time.Since(status.CheckedAt)
	status.Healthy = true

	s := db.Pool.Stat()
	status.Stats = PoolStats{
		AcquireCount:  s.AcquireCount(),
		AcquiredConns: s.AcquiredConns(),
		IdleConns:     s.IdleConns(),
		MaxConns:      s.MaxConns(),
		TotalConns:    s.TotalConns(),
	}
	return status, nil
}

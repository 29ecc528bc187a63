// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package store provides the PostgreSQL connection pool and schema migrations.
package store

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Pool is the subset of *pgxpool.Pool that repositories use.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// pinger is satisfied by *pgxpool.Pool and pgxmock pools.
type pinger interface {
	Ping(ctx context.Context) error
}

// Defaults for Options fields left zero.
const (
	DefaultHealthInterval = 30 * time.Second
	DefaultConnectTimeout = 30 * time.Second
	DefaultMaxConns       = 10
)

// Options configures Open.
type Options struct {
	URL            string
	MaxConns       int32
	ConnectTimeout time.Duration
	HealthInterval time.Duration
	Logger         *slog.Logger
}

// DB owns the connection pool and tracks whether the database answered
// its most recent health check.
type DB struct {
	pool     *pgxpool.Pool
	pinger   pinger
	interval time.Duration
	logger   *slog.Logger
	healthy  atomic.Bool
}

// Open connects to PostgreSQL, retrying with exponential backoff until
// the database answers or opts.ConnectTimeout elapses.
func Open(ctx context.Context, opts Options) (*DB, error) {
	if opts.URL == "" {
		return nil, oops.Code("DB_CONFIG_INVALID").Errorf("database url is required")
	}
	if opts.MaxConns <= 0 {
		opts.MaxConns = DefaultMaxConns
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	cfg, err := pgxpool.ParseConfig(opts.URL)
	if err != nil {
		return nil, oops.Code("DB_CONFIG_INVALID").With("operation", "parse database url").Wrap(err)
	}
	cfg.MaxConns = opts.MaxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "create pool").Wrap(err)
	}

	backoff := retry.WithMaxDuration(opts.ConnectTimeout, retry.NewExponential(250*time.Millisecond))
	attempt := 0
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if pingErr := pool.Ping(ctx); pingErr != nil {
			opts.Logger.WarnContext(ctx, "database not reachable, retrying",
				"attempt", attempt,
				"error", pingErr,
			)
			return retry.RetryableError(pingErr)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, oops.Code("DB_CONNECT_FAILED").
			With("attempts", attempt).
			Wrap(err)
	}

	db := newDB(pool, pool, opts.HealthInterval, opts.Logger)
	db.healthy.Store(true)
	opts.Logger.InfoContext(ctx, "database connected", "max_conns", opts.MaxConns)
	return db, nil
}

func newDB(pool *pgxpool.Pool, p pinger, interval time.Duration, logger *slog.Logger) *DB {
	if interval <= 0 {
		interval = DefaultHealthInterval
	}
	return &DB{pool: pool, pinger: p, interval: interval, logger: logger}
}

// Pool returns the underlying pool.
func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

// Healthy reports the outcome of the most recent health check.
func (db *DB) Healthy() bool {
	return db.healthy.Load()
}

// CheckHealth pings the database once and records the result.
func (db *DB) CheckHealth(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := db.pinger.Ping(ctx)
	was := db.healthy.Swap(err == nil)
	switch {
	case err != nil && was:
		db.logger.ErrorContext(ctx, "database health check failed", "error", err)
	case err == nil && !was:
		db.logger.InfoContext(ctx, "database health restored")
	}
	if err != nil {
		return oops.Code("DB_UNHEALTHY").Wrap(err)
	}
	return nil
}

// RunHealthChecks pings the database every health interval until ctx is done.
func (db *DB) RunHealthChecks(ctx context.Context) {
	ticker := time.NewTicker(db.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = db.CheckHealth(ctx) //nolint:errcheck // recorded in healthy and logged
		}
	}
}

// Close drains the pool.
func (db *DB) Close() {
	db.healthy.Store(false)
	if db.pool != nil {
		db.pool.Close()
	}
}

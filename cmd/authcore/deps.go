// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"net"

	goredis "github.com/redis/go-redis/v9"

	"github.com/holomush/authcore/internal/observability"
	"github.com/holomush/authcore/internal/store"
)

// ServeDeps contains injectable dependencies for the serve command.
// All fields with nil values will use their default implementations.
type ServeDeps struct {
	// OpenDatabase connects to PostgreSQL and returns the health tracker
	// alongside the pool repositories use.
	// Default: store.Open
	OpenDatabase func(ctx context.Context, opts store.Options) (Database, store.Pool, error)

	// RedisClientFactory connects to Redis for the redis OTP store.
	// Default: newRedisClient
	RedisClientFactory func(ctx context.Context, url string) (RedisClient, error)

	// ObservabilityServerFactory creates an observability server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer

	// ListenerFactory creates the API listener.
	// Default: net.Listen
	ListenerFactory func(network, address string) (net.Listener, error)

	// Environ replaces the process environment for configuration.
	// Default: nil (process environment)
	Environ map[string]string
}

// MigrateDeps contains injectable dependencies for the migrate command.
type MigrateDeps struct {
	// MigratorFactory creates a migrator for a database URL.
	// Default: store.NewMigrator
	MigratorFactory func(url string) (Migrator, error)

	// Environ replaces the process environment for configuration.
	Environ map[string]string
}

// Database wraps the methods serve uses from store.DB.
type Database interface {
	Healthy() bool
	RunHealthChecks(ctx context.Context)
	Close()
}

// RedisClient is the part of *goredis.Client serve uses.
type RedisClient interface {
	goredis.Cmdable
	Close() error
}

// ObservabilityServer interface wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
}

// Migrator wraps the methods used from store.Migrator.
type Migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Version() (uint, bool, error)
	Force(version int) error
	Status() (store.MigrationStatus, error)
	Close() error
}

func openDatabase(ctx context.Context, opts store.Options) (Database, store.Pool, error) {
	db, err := store.Open(ctx, opts)
	if err != nil {
		return nil, nil, err
	}
	return db, db.Pool(), nil
}

func newRedisClient(ctx context.Context, url string) (RedisClient, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err //nolint:wrapcheck // wrapped by caller
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err //nolint:wrapcheck // wrapped by caller
	}
	return client, nil
}

var (
	_ Database            = (*store.DB)(nil)
	_ ObservabilityServer = (*observability.Server)(nil)
	_ Migrator            = (*store.Migrator)(nil)
	_ RedisClient         = (*goredis.Client)(nil)
)

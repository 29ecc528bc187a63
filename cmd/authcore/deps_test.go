// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"net"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/holomush/authcore/internal/observability"
	"github.com/holomush/authcore/internal/store"
)

// mockDatabase implements Database for testing.
type mockDatabase struct {
	healthy atomic.Bool
	closed  atomic.Bool
}

func newMockDatabase() *mockDatabase {
	db := &mockDatabase{}
	db.healthy.Store(true)
	return db
}

func (m *mockDatabase) Healthy() bool { return m.healthy.Load() }

func (m *mockDatabase) RunHealthChecks(ctx context.Context) { <-ctx.Done() }

func (m *mockDatabase) Close() { m.closed.Store(true) }

// mockObservabilityServer implements ObservabilityServer for testing.
type mockObservabilityServer struct {
	startFunc func() (<-chan error, error)
	stopFunc  func(ctx context.Context) error
	metrics   *observability.Metrics
	stopped   atomic.Bool
}

func newMockObservabilityServer() *mockObservabilityServer {
	return &mockObservabilityServer{metrics: observability.NewMetrics(prometheus.NewRegistry())}
}

func (m *mockObservabilityServer) Start() (<-chan error, error) {
	if m.startFunc != nil {
		return m.startFunc()
	}
	ch := make(chan error, 1)
	return ch, nil
}

func (m *mockObservabilityServer) Stop(ctx context.Context) error {
	m.stopped.Store(true)
	if m.stopFunc != nil {
		return m.stopFunc(ctx)
	}
	return nil
}

func (m *mockObservabilityServer) Addr() string { return "127.0.0.1:9100" }

func (m *mockObservabilityServer) Metrics() *observability.Metrics { return m.metrics }

// mockMigrator implements Migrator for testing.
type mockMigrator struct {
	upErr    error
	calls    []string
	steps    int
	forced   int
	version  uint
	dirty    bool
	status   store.MigrationStatus
	closeErr error
}

func (m *mockMigrator) Up() error {
	m.calls = append(m.calls, "up")
	return m.upErr
}

func (m *mockMigrator) Down() error {
	m.calls = append(m.calls, "down")
	return nil
}

func (m *mockMigrator) Steps(n int) error {
	m.calls = append(m.calls, "steps")
	m.steps = n
	return nil
}

func (m *mockMigrator) Version() (uint, bool, error) {
	m.calls = append(m.calls, "version")
	return m.version, m.dirty, nil
}

func (m *mockMigrator) Force(version int) error {
	m.calls = append(m.calls, "force")
	m.forced = version
	return nil
}

func (m *mockMigrator) Status() (store.MigrationStatus, error) {
	m.calls = append(m.calls, "status")
	return m.status, nil
}

func (m *mockMigrator) Close() error {
	m.calls = append(m.calls, "close")
	return m.closeErr
}

// captureListener wraps net.Listen and reports the bound listener.
func captureListener(ready chan<- net.Listener) func(network, address string) (net.Listener, error) {
	return func(network, _ string) (net.Listener, error) {
		ln, err := net.Listen(network, "127.0.0.1:0")
		if err != nil {
			return nil, err
		}
		ready <- ln
		return ln, nil
	}
}

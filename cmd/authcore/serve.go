// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/holomush/authcore/internal/auth"
	authpg "github.com/holomush/authcore/internal/auth/postgres"
	authredis "github.com/holomush/authcore/internal/auth/redis"
	"github.com/holomush/authcore/internal/config"
	"github.com/holomush/authcore/internal/httpapi"
	"github.com/holomush/authcore/internal/logging"
	"github.com/holomush/authcore/internal/observability"
	"github.com/holomush/authcore/internal/store"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the auth API server",
		Long: `Start the HTTP auth API. Configuration is read from the --config
file, then the environment, then any flags given here.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServeWithDeps(cmd.Context(), cmd, nil)
		},
	}

	config.RegisterFlags(cmd.Flags())

	return cmd
}

// runServeWithDeps starts the API server with injectable dependencies.
// If deps is nil, default implementations are used.
func runServeWithDeps(ctx context.Context, cmd *cobra.Command, deps *ServeDeps) error {
	if deps == nil {
		deps = &ServeDeps{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if deps.OpenDatabase == nil {
		deps.OpenDatabase = openDatabase
	}
	if deps.RedisClientFactory == nil {
		deps.RedisClientFactory = newRedisClient
	}
	if deps.ObservabilityServerFactory == nil {
		deps.ObservabilityServerFactory = func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer {
			return observability.NewServer(addr, readinessChecker)
		}
	}
	if deps.ListenerFactory == nil {
		deps.ListenerFactory = net.Listen
	}

	cfg, err := loadConfig(cmd, deps.Environ)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logger := logging.New(logging.Options{
		Service: "authcore",
		Version: version,
		Format:  cfg.Log.Format,
		Level:   level,
	})
	slog.SetDefault(logger)

	logger.Info("starting authcore",
		"http_addr", cfg.HTTP.Addr,
		"otp_store", cfg.OTP.Store,
		"log_level", cfg.Log.Level,
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	db, pool, err := deps.OpenDatabase(ctx, store.Options{
		URL:            cfg.Database.URL,
		MaxConns:       cfg.Database.MaxConns,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		HealthInterval: cfg.Database.HealthInterval,
		Logger:         logger,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	go db.RunHealthChecks(ctx)

	logger.Info("connected to database")

	accounts := authpg.NewAccountRepository(pool)

	otpStore, closeOTPStore, err := newOTPStore(ctx, cfg, pool, deps)
	if err != nil {
		return err
	}
	defer closeOTPStore()

	tokens, err := auth.NewTokenIssuer([]byte(cfg.Token.Secret))
	if err != nil {
		return fmt.Errorf("failed to create token issuer: %w", err)
	}

	hasher := auth.NewArgon2idHasher()
	sender := auth.NewLogCodeSender(logger)
	ledger := auth.NewOTPLedger(otpStore)

	authService, err := auth.NewService(auth.ServiceConfig{
		Accounts: accounts,
		IDs:      auth.NewIdentifierAllocator(accounts),
		OTPs:     ledger,
		Tokens:   tokens,
		Hasher:   hasher,
		Sender:   sender,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create auth service: %w", err)
	}

	resetService, err := auth.NewPasswordResetService(
		accounts, authpg.NewPasswordResetRepository(pool), hasher, sender, logger)
	if err != nil {
		return fmt.Errorf("failed to create password reset service: %w", err)
	}

	// Start observability server if configured
	var (
		obsServer ObservabilityServer
		metrics   *observability.Metrics
	)
	if cfg.Metrics.Addr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.Metrics.Addr, db.Healthy)
		obsErrChan, err := obsServer.Start()
		if err != nil {
			return fmt.Errorf("failed to start observability server: %w", err)
		}
		// Monitor observability server errors - cancel context on error
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability")
		metrics = obsServer.Metrics()
		logger.Info("observability server started", "addr", obsServer.Addr())
	}

	router, err := httpapi.NewRouter(httpapi.Config{
		Auth:    authService,
		Resets:  resetService,
		Metrics: metrics,
		Logger:  logger,
	})
	if err != nil {
		stopObservability(obsServer, logger)
		return fmt.Errorf("failed to create router: %w", err)
	}

	listener, err := deps.ListenerFactory("tcp", cfg.HTTP.Addr)
	if err != nil {
		stopObservability(obsServer, logger)
		return fmt.Errorf("failed to listen on %s: %w", cfg.HTTP.Addr, err)
	}

	httpServer := &http.Server{
		Handler:           router,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errChan := make(chan error, 1)
	go func() {
		if serveErr := httpServer.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errChan <- serveErr
		}
	}()

	sweeper := auth.NewSweeper(cfg.Sweep.Interval, logger, map[string]auth.Purger{
		"otp_challenges":  ledger,
		"password_resets": resetService,
	})
	go sweeper.Run(ctx)

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Println("authcore serving on " + listener.Addr().String())
	logger.Info("authcore ready", "http_addr", listener.Addr().String())

	var serveErr error
	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig)
	case serveErr = <-errChan:
		logger.Error("http server error", "error", serveErr)
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	}

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("error stopping http server", "error", err)
	}
	if obsServer != nil {
		if err := obsServer.Stop(shutdownCtx); err != nil {
			logger.Warn("error stopping observability server", "error", err)
		}
	}
	cancel()

	if serveErr != nil {
		return fmt.Errorf("http server error: %w", serveErr)
	}

	logger.Info("shutdown complete")
	return nil
}

// newOTPStore builds the challenge store named by cfg.OTP.Store. The
// returned close function is always non-nil.
func newOTPStore(ctx context.Context, cfg config.Config, pool store.Pool, deps *ServeDeps) (auth.OTPStore, func(), error) {
	noop := func() {}

	switch cfg.OTP.Store {
	case config.OTPStoreMemory:
		return auth.NewMemoryOTPStore(), noop, nil
	case config.OTPStoreRedis:
		client, err := deps.RedisClientFactory(ctx, cfg.Redis.URL)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to connect to redis: %w", err)
		}
		closeClient := func() {
			if err := client.Close(); err != nil {
				slog.Debug("error closing redis client", "error", err)
			}
		}
		return authredis.NewOTPStore(client), closeClient, nil
	default:
		return authpg.NewOTPStore(pool), noop, nil
	}
}

func stopObservability(s ObservabilityServer, logger *slog.Logger) {
	if s == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		logger.Warn("failed to stop observability server during cleanup", "error", err)
	}
}

// monitorServerErrors monitors a server's error channel and cancels the context on error.
// It exits when either an error is received, the channel is closed, or the context is cancelled.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			// Channel closed, server stopped gracefully
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}

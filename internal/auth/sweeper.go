// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"log/slog"
	"time"
)

// DefaultSweepInterval is how often expired challenges and reset tokens are purged.
const DefaultSweepInterval = 5 * time.Minute

// Purger removes expired records and reports how many were deleted.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Sweeper periodically purges expired OTP challenges and reset tokens.
type Sweeper struct {
	purgers  map[string]Purger
	interval time.Duration
	logger   *slog.Logger
}

// NewSweeper creates a Sweeper. Non-positive intervals use DefaultSweepInterval.
func NewSweeper(interval time.Duration, logger *slog.Logger, purgers map[string]Purger) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{purgers: purgers, interval: interval, logger: logger}
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.SweepOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce runs every purger a single time. Failures are logged.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	for name, p := range s.purgers {
		n, err := p.PurgeExpired(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.WarnContext(ctx, "sweep failed", "target", name, "error", err)
			continue
		}
		if n > 0 {
			s.logger.DebugContext(ctx, "swept expired records", "target", name, "deleted", n)
		}
	}
}

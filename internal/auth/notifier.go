// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"log/slog"
	"time"
)

// CodeSender delivers one-time codes and reset tokens out of band.
type CodeSender interface {
	// SendLoginCode delivers a login code to email.
	SendLoginCode(ctx context.Context, email, code string, expiresAt time.Time) error

	// SendResetToken delivers a password reset token to email.
	SendResetToken(ctx context.Context, email, token string, expiresAt time.Time) error
}

// LogCodeSender writes codes to a logger instead of delivering them.
// Suitable for development only.
type LogCodeSender struct {
	logger *slog.Logger
}

// NewLogCodeSender creates a LogCodeSender. A nil logger uses slog.Default.
func NewLogCodeSender(logger *slog.Logger) *LogCodeSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogCodeSender{logger: logger}
}

// SendLoginCode logs the code at debug level.
func (s *LogCodeSender) SendLoginCode(ctx context.Context, email, code string, expiresAt time.Time) error {
	s.logger.DebugContext(ctx, "send login code",
		"email", email,
		"otp", code,
		"expires_at", expiresAt,
	)
	return nil
}

// SendResetToken logs the reset token at debug level.
func (s *LogCodeSender) SendResetToken(ctx context.Context, email, token string, expiresAt time.Time) error {
	s.logger.DebugContext(ctx, "send password reset token",
		"email", email,
		"reset_token", token,
		"expires_at", expiresAt,
	)
	return nil
}

var _ CodeSender = (*LogCodeSender)(nil)

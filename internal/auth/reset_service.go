// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/oops"
)

// PasswordResetService handles password reset operations.
type PasswordResetService struct {
	accounts AccountRepository
	resets   PasswordResetRepository
	hasher   PasswordHasher
	sender   CodeSender
	logger   *slog.Logger
}

// NewPasswordResetService creates a new PasswordResetService.
func NewPasswordResetService(
	accounts AccountRepository,
	resets PasswordResetRepository,
	hasher PasswordHasher,
	sender CodeSender,
	logger *slog.Logger,
) (*PasswordResetService, error) {
	switch {
	case accounts == nil:
		return nil, oops.Code("RESET_SERVICE_INVALID").Errorf("account repository is required")
	case resets == nil:
		return nil, oops.Code("RESET_SERVICE_INVALID").Errorf("reset repository is required")
	case hasher == nil:
		return nil, oops.Code("RESET_SERVICE_INVALID").Errorf("password hasher is required")
	case sender == nil:
		return nil, oops.Code("RESET_SERVICE_INVALID").Errorf("code sender is required")
	case logger == nil:
		return nil, oops.Code("RESET_SERVICE_INVALID").Errorf("logger is required")
	}
	return &PasswordResetService{
		accounts: accounts,
		resets:   resets,
		hasher:   hasher,
		sender:   sender,
		logger:   logger,
	}, nil
}

// RequestReset creates a reset token for the account registered under email
// and hands it to the sender. Unknown emails succeed silently so callers
// cannot probe which addresses are registered.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	if err := ValidateEmail(email); err != nil {
		return err
	}

	account, err := s.accounts.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return oops.Code("RESET_REQUEST_FAILED").
			With("operation", "GetByEmail").
			Wrap(err)
	}

	token, hash, err := GenerateResetToken()
	if err != nil {
		return oops.Code("RESET_REQUEST_FAILED").
			With("operation", "GenerateResetToken").
			Wrap(err)
	}

	reset, err := NewPasswordReset(account.ID, hash, time.Now().Add(ResetTokenExpiry))
	if err != nil {
		return oops.Code("RESET_REQUEST_FAILED").
			With("operation", "NewPasswordReset").
			Wrap(err)
	}

	if err := s.resets.Create(ctx, reset); err != nil {
		return oops.Code("RESET_REQUEST_FAILED").
			With("operation", "Create").
			Wrap(err)
	}

	if err := s.sender.SendResetToken(ctx, account.Email, token, reset.ExpiresAt); err != nil {
		s.logger.WarnContext(ctx, "password reset delivery failed",
			"operation", "SendResetToken",
			"account_id", account.ID,
			"error", err,
		)
	}
	return nil
}

// ValidateToken validates a reset token and returns the associated account ID.
func (s *PasswordResetService) ValidateToken(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", oops.Code("RESET_TOKEN_EMPTY").
			Public("Reset token is required.").
			Errorf("reset token cannot be empty")
	}

	reset, err := s.resets.GetByTokenHash(ctx, hashResetToken(token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", oops.Code("RESET_TOKEN_INVALID").
				Public("Invalid reset token.").
				Errorf("reset token not found")
		}
		return "", oops.Code("RESET_VALIDATE_FAILED").
			With("operation", "GetByTokenHash").
			Wrap(err)
	}

	if reset.IsExpired() {
		return "", oops.Code("RESET_TOKEN_EXPIRED").
			Public("This reset token expired.").
			Errorf("reset token has expired")
	}

	return reset.AccountID, nil
}

// ResetPassword replaces the account password using a valid reset token and
// removes every outstanding reset token for the account.
func (s *PasswordResetService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if newPassword == "" {
		return oops.Code("RESET_PASSWORD_EMPTY").
			Public("New password is required.").
			Errorf("new password cannot be empty")
	}

	accountID, err := s.ValidateToken(ctx, token)
	if err != nil {
		return err
	}

	hashed, err := s.hasher.Hash(newPassword)
	if err != nil {
		return oops.Code("RESET_PASSWORD_FAILED").
			With("operation", "Hash").
			Wrap(err)
	}

	if err := s.accounts.SetPasswordHash(ctx, accountID, hashed); err != nil {
		return oops.Code("RESET_PASSWORD_FAILED").
			With("operation", "SetPasswordHash").
			Wrap(err)
	}

	// The password is already replaced; a failed cleanup only leaves tokens
	// for the sweeper.
	if err := s.resets.DeleteByAccount(ctx, accountID); err != nil {
		s.logger.WarnContext(ctx, "best-effort reset token cleanup failed",
			"operation", "DeleteByAccount",
			"account_id", accountID,
			"error", err,
		)
	}
	return nil
}

// PurgeExpired removes expired reset tokens.
func (s *PasswordResetService) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.resets.DeleteExpired(ctx, time.Now())
	if err != nil {
		return 0, oops.Code("RESET_PURGE_FAILED").Wrap(err)
	}
	return n, nil
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/authcore/internal/auth"
	"github.com/holomush/authcore/internal/store"
)

// PasswordResetRepository implements auth.PasswordResetRepository using PostgreSQL.
type PasswordResetRepository struct {
	pool store.Pool
}

// NewPasswordResetRepository creates a new PasswordResetRepository.
func NewPasswordResetRepository(pool store.Pool) *PasswordResetRepository {
	return &PasswordResetRepository{pool: pool}
}

// Create stores a new password reset request.
func (r *PasswordResetRepository) Create(ctx context.Context, reset *auth.PasswordReset) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO password_resets (id, account_id, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, reset.ID.String(), reset.AccountID, reset.TokenHash, reset.ExpiresAt, reset.CreatedAt)
	if err != nil {
		return oops.Code("RESET_CREATE_FAILED").
			With("account_id", reset.AccountID).
			Wrap(err)
	}
	return nil
}

// GetByAccount retrieves the most recent reset request for an account.
func (r *PasswordResetRepository) GetByAccount(ctx context.Context, accountID string) (*auth.PasswordReset, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, account_id, token_hash, expires_at, created_at
		FROM password_resets
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, accountID)

	reset, err := scanReset(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("RESET_NOT_FOUND").
			With("account_id", accountID).
			Wrap(auth.ErrNotFound)
	}
	return reset, err
}

// GetByTokenHash retrieves a reset request by its token hash.
func (r *PasswordResetRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*auth.PasswordReset, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, account_id, token_hash, expires_at, created_at
		FROM password_resets
		WHERE token_hash = $1
	`, tokenHash)

	reset, err := scanReset(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("RESET_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	return reset, err
}

// Delete removes a password reset request.
func (r *PasswordResetRepository) Delete(ctx context.Context, id ulid.ULID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM password_resets WHERE id = $1`, id.String())
	if err != nil {
		return oops.Code("RESET_DELETE_FAILED").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("RESET_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// DeleteByAccount removes all reset requests for an account. Deleting
// nothing is not an error.
func (r *PasswordResetRepository) DeleteByAccount(ctx context.Context, accountID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM password_resets WHERE account_id = $1`, accountID)
	if err != nil {
		return oops.Code("RESET_DELETE_BY_ACCOUNT_FAILED").
			With("account_id", accountID).
			Wrap(err)
	}
	return nil
}

// DeleteExpired removes reset requests that expired before now.
func (r *PasswordResetRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM password_resets WHERE expires_at < $1`, now)
	if err != nil {
		return 0, oops.Code("RESET_DELETE_EXPIRED_FAILED").Wrap(err)
	}
	return result.RowsAffected(), nil
}

// scanReset scans one row. pgx.ErrNoRows is returned unwrapped.
func scanReset(row pgx.Row) (*auth.PasswordReset, error) {
	var (
		reset auth.PasswordReset
		idStr string
	)
	err := row.Scan(&idStr, &reset.AccountID, &reset.TokenHash, &reset.ExpiresAt, &reset.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err //nolint:wrapcheck // callers wrap with lookup context
	}
	if err != nil {
		return nil, oops.Code("RESET_SCAN_FAILED").Wrap(err)
	}

	reset.ID, err = ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("RESET_INVALID_ID").With("id", idStr).Wrap(err)
	}
	return &reset, nil
}

// Compile-time interface check.
var _ auth.PasswordResetRepository = (*PasswordResetRepository)(nil)

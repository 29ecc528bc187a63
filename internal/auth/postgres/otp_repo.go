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

// OTPStore implements auth.OTPStore using PostgreSQL. The unique index on
// account_id keeps one challenge per account.
type OTPStore struct {
	pool store.Pool
}

// NewOTPStore creates a new OTPStore.
func NewOTPStore(pool store.Pool) *OTPStore {
	return &OTPStore{pool: pool}
}

// Replace upserts the account's challenge.
func (s *OTPStore) Replace(ctx context.Context, c *auth.OTPChallenge) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO otp_challenges (id, account_id, code_hash, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (account_id) DO UPDATE SET
			id = EXCLUDED.id,
			code_hash = EXCLUDED.code_hash,
			issued_at = EXCLUDED.issued_at,
			expires_at = EXCLUDED.expires_at
	`, c.ID.String(), c.AccountID, c.CodeHash, c.IssuedAt, c.ExpiresAt)
	if err != nil {
		return oops.Code("OTP_REPLACE_FAILED").
			With("account_id", c.AccountID).
			Wrap(err)
	}
	return nil
}

// Get returns the account's current challenge.
func (s *OTPStore) Get(ctx context.Context, accountID string) (*auth.OTPChallenge, error) {
	var (
		c     auth.OTPChallenge
		idStr string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, account_id, code_hash, issued_at, expires_at
		FROM otp_challenges
		WHERE account_id = $1
	`, accountID).Scan(&idStr, &c.AccountID, &c.CodeHash, &c.IssuedAt, &c.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("OTP_CHALLENGE_NOT_FOUND").
			With("account_id", accountID).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("OTP_GET_FAILED").
			With("account_id", accountID).
			Wrap(err)
	}

	c.ID, err = ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("OTP_INVALID_ID").
			With("id", idStr).
			Wrap(err)
	}
	return &c, nil
}

// Consume deletes the challenge only if id is still the current one.
func (s *OTPStore) Consume(ctx context.Context, accountID string, id ulid.ULID) error {
	result, err := s.pool.Exec(ctx, `
		DELETE FROM otp_challenges WHERE account_id = $1 AND id = $2
	`, accountID, id.String())
	if err != nil {
		return oops.Code("OTP_CONSUME_FAILED").
			With("account_id", accountID).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("OTP_CHALLENGE_NOT_FOUND").
			With("account_id", accountID).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// DeleteExpired removes challenges that expired before now.
func (s *OTPStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.pool.Exec(ctx, `DELETE FROM otp_challenges WHERE expires_at < $1`, now)
	if err != nil {
		return 0, oops.Code("OTP_DELETE_EXPIRED_FAILED").Wrap(err)
	}
	return result.RowsAffected(), nil
}

// Compile-time interface check.
var _ auth.OTPStore = (*OTPStore)(nil)

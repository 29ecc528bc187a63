// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package redis provides a Redis-backed OTP challenge store.
package redis

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/holomush/authcore/internal/auth"
)

const (
	keyPrefix = "authcore:otp:"

	// ExpiryGrace keeps an expired challenge readable for a while so that
	// verification can report it as expired rather than missing.
	ExpiryGrace = 10 * time.Minute
)

// consumeScript deletes the challenge only if it is still the one identified
// by ARGV[1]. Returns 1 when deleted.
var consumeScript = goredis.NewScript(`
if redis.call("HGET", KEYS[1], "id") == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// OTPStore keeps one hash per account. Redis key expiry removes stale
// challenges, so DeleteExpired is a no-op.
type OTPStore struct {
	rdb goredis.Cmdable
}

// NewOTPStore creates a new OTPStore.
func NewOTPStore(rdb goredis.Cmdable) *OTPStore {
	return &OTPStore{rdb: rdb}
}

func key(accountID string) string {
	return keyPrefix + accountID
}

// Replace discards any outstanding challenge for the account and stores c.
func (s *OTPStore) Replace(ctx context.Context, c *auth.OTPChallenge) error {
	k := key(c.AccountID)
	_, err := s.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, k)
		pipe.HSet(ctx, k,
			"id", c.ID.String(),
			"code_hash", c.CodeHash,
			"issued_at", c.IssuedAt.UTC().Format(time.RFC3339Nano),
			"expires_at", c.ExpiresAt.UTC().Format(time.RFC3339Nano),
		)
		pipe.PExpireAt(ctx, k, c.ExpiresAt.Add(ExpiryGrace))
		return nil
	})
	if err != nil {
		return oops.Code("OTP_REPLACE_FAILED").
			With("account_id", c.AccountID).
			Wrap(err)
	}
	return nil
}

// Get returns the outstanding challenge for the account.
func (s *OTPStore) Get(ctx context.Context, accountID string) (*auth.OTPChallenge, error) {
	fields, err := s.rdb.HGetAll(ctx, key(accountID)).Result()
	if err != nil {
		return nil, oops.Code("OTP_GET_FAILED").
			With("account_id", accountID).
			Wrap(err)
	}
	if len(fields) == 0 {
		return nil, oops.Code("OTP_CHALLENGE_NOT_FOUND").
			With("account_id", accountID).
			Wrap(auth.ErrNotFound)
	}
	return decodeChallenge(accountID, fields)
}

// Consume deletes the challenge if it is still the outstanding one.
func (s *OTPStore) Consume(ctx context.Context, accountID string, id ulid.ULID) error {
	n, err := consumeScript.Run(ctx, s.rdb, []string{key(accountID)}, id.String()).Int64()
	if err != nil {
		return oops.Code("OTP_CONSUME_FAILED").
			With("account_id", accountID).
			Wrap(err)
	}
	if n == 0 {
		return oops.Code("OTP_CHALLENGE_NOT_FOUND").
			With("account_id", accountID).
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// DeleteExpired always reports zero; keys expire on their own.
func (s *OTPStore) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func decodeChallenge(accountID string, fields map[string]string) (*auth.OTPChallenge, error) {
	id, err := ulid.Parse(fields["id"])
	if err != nil {
		return nil, oops.Code("OTP_INVALID_ID").
			With("account_id", accountID).
			Wrap(err)
	}
	issued, err := time.Parse(time.RFC3339Nano, fields["issued_at"])
	if err != nil {
		return nil, oops.Code("OTP_DECODE_FAILED").With("field", "issued_at").Wrap(err)
	}
	expires, err := time.Parse(time.RFC3339Nano, fields["expires_at"])
	if err != nil {
		return nil, oops.Code("OTP_DECODE_FAILED").With("field", "expires_at").Wrap(err)
	}
	return &auth.OTPChallenge{
		ID:        id,
		AccountID: accountID,
		CodeHash:  fields["code_hash"],
		IssuedAt:  issued,
		ExpiresAt: expires,
	}, nil
}

// Compile-time interface check.
var _ auth.OTPStore = (*OTPStore)(nil)

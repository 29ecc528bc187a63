// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"math/big"
	"strconv"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// One-time code configuration.
const (
	OTPCodeMin    = 10000
	OTPCodeMax    = 99999
	OTPCodeLength = 5
	OTPExpiry     = 2 * time.Minute
)

// OTPChallenge is a pending one-time code. Only the code hash is stored.
type OTPChallenge struct {
	ID        ulid.ULID
	AccountID string
	CodeHash  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// IsExpiredAt reports whether the challenge has expired at t.
func (c *OTPChallenge) IsExpiredAt(t time.Time) bool {
	return t.After(c.ExpiresAt)
}

// OTPStore persists OTP challenges. At most one challenge exists per
// account; Replace overwrites any previous one atomically.
type OTPStore interface {
	// Replace stores challenge, discarding any existing challenge for the account.
	Replace(ctx context.Context, challenge *OTPChallenge) error

	// Get retrieves the current challenge for an account.
	// Returns ErrNotFound if none exists.
	Get(ctx context.Context, accountID string) (*OTPChallenge, error)

	// Consume removes the challenge with the given id. Returns ErrNotFound
	// if it was already replaced or consumed.
	Consume(ctx context.Context, accountID string, id ulid.ULID) error

	// DeleteExpired removes all challenges that expired before now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// GenerateOTPCode returns a uniformly random code in [OTPCodeMin, OTPCodeMax].
func GenerateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(OTPCodeMax-OTPCodeMin+1))
	if err != nil {
		return "", oops.Code("OTP_GENERATE_FAILED").Wrap(err)
	}
	return strconv.FormatInt(n.Int64()+OTPCodeMin, 10), nil
}

// HashOTPCode hashes a code, salted with the challenge id.
func HashOTPCode(id ulid.ULID, code string) string {
	h := sha256.Sum256([]byte(id.String() + ":" + code))
	return hex.EncodeToString(h[:])
}

// VerifyOTPCode checks code against a stored hash in constant time.
func VerifyOTPCode(id ulid.ULID, code, hash string) bool {
	if code == "" || hash == "" {
		return false
	}
	computed := HashOTPCode(id, code)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(hash)) == 1
}

// OTPLedgerOption configures an OTPLedger.
type OTPLedgerOption func(*OTPLedger)

// WithOTPClock overrides the ledger clock.
func WithOTPClock(now func() time.Time) OTPLedgerOption {
	return func(l *OTPLedger) { l.now = now }
}

// WithOTPCodeSource overrides code generation.
func WithOTPCodeSource(gen func() (string, error)) OTPLedgerOption {
	return func(l *OTPLedger) { l.generate = gen }
}

// OTPLedger issues and verifies one-time login codes.
type OTPLedger struct {
	store    OTPStore
	ttl      time.Duration
	now      func() time.Time
	generate func() (string, error)
}

// NewOTPLedger creates an OTPLedger over store.
func NewOTPLedger(store OTPStore, opts ...OTPLedgerOption) *OTPLedger {
	l := &OTPLedger{
		store:    store,
		ttl:      OTPExpiry,
		now:      time.Now,
		generate: GenerateOTPCode,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Issue creates a new code for accountID, invalidating any earlier one.
// The plaintext code is returned for out-of-band delivery.
func (l *OTPLedger) Issue(ctx context.Context, accountID string) (string, time.Time, error) {
	code, err := l.generate()
	if err != nil {
		return "", time.Time{}, oops.Code("OTP_ISSUE_FAILED").
			With("operation", "generate code").
			Wrap(err)
	}

	issuedAt := l.now().UTC()
	challenge := &OTPChallenge{
		ID:        ulid.Make(),
		AccountID: accountID,
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt.Add(l.ttl),
	}
	challenge.CodeHash = HashOTPCode(challenge.ID, code)

	if err := l.store.Replace(ctx, challenge); err != nil {
		return "", time.Time{}, oops.Code("OTP_ISSUE_FAILED").
			With("operation", "replace challenge").
			With("account_id", accountID).
			Wrap(err)
	}
	return code, challenge.ExpiresAt, nil
}

// Verify checks code against the account's current challenge and consumes
// it on success. Failures wrap ErrOTPNotFound, ErrOTPInvalid or ErrOTPExpired.
// A matching code past its expiry is reported as expired.
func (l *OTPLedger) Verify(ctx context.Context, accountID, code string) error {
	challenge, err := l.store.Get(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return otpNotFound(accountID)
		}
		return oops.Code("OTP_VERIFY_FAILED").
			With("operation", "get challenge").
			With("account_id", accountID).
			Wrap(err)
	}

	if !VerifyOTPCode(challenge.ID, code, challenge.CodeHash) {
		return oops.Code("OTP_INVALID").
			With("account_id", accountID).
			Public("Invalid OTP").
			Wrap(ErrOTPInvalid)
	}

	if challenge.IsExpiredAt(l.now()) {
		return oops.Code("OTP_EXPIRED").
			With("account_id", accountID).
			With("expired_at", challenge.ExpiresAt).
			Public("This OTP expired").
			Wrap(ErrOTPExpired)
	}

	if err := l.store.Consume(ctx, accountID, challenge.ID); err != nil {
		if errors.Is(err, ErrNotFound) {
			// Lost a race with another verify or a re-issue.
			return otpNotFound(accountID)
		}
		return oops.Code("OTP_VERIFY_FAILED").
			With("operation", "consume challenge").
			With("account_id", accountID).
			Wrap(err)
	}
	return nil
}

// PurgeExpired removes expired challenges from the store.
func (l *OTPLedger) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := l.store.DeleteExpired(ctx, l.now())
	if err != nil {
		return 0, oops.Code("OTP_PURGE_FAILED").Wrap(err)
	}
	return n, nil
}

func otpNotFound(accountID string) error {
	return oops.Code("OTP_NOT_FOUND").
		With("account_id", accountID).
		Public("No OTP found").
		Wrap(ErrOTPNotFound)
}

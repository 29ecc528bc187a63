// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// MaxIDAttempts caps identifier generation when every candidate collides.
const MaxIDAttempts = 5

// errIDCollision marks a generated id that already exists.
var errIDCollision = errors.New("identifier already in use")

// IdentifierAllocator generates opaque account identifiers and confirms
// each one is unused before handing it out.
type IdentifierAllocator struct {
	accounts AccountRepository
	generate func() (string, error)
}

// IdentifierOption configures an IdentifierAllocator.
type IdentifierOption func(*IdentifierAllocator)

// WithIDGenerator replaces the random id source.
func WithIDGenerator(gen func() (string, error)) IdentifierOption {
	return func(a *IdentifierAllocator) { a.generate = gen }
}

// NewIdentifierAllocator creates an allocator backed by random UUIDv4 ids.
func NewIdentifierAllocator(accounts AccountRepository, opts ...IdentifierOption) *IdentifierAllocator {
	a := &IdentifierAllocator{
		accounts: accounts,
		generate: randomID,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func randomID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err //nolint:wrapcheck // wrapped by Allocate
	}
	return id.String(), nil
}

// Allocate returns an identifier that no stored account uses.
// Collisions are retried up to MaxIDAttempts times; store errors are not.
func (a *IdentifierAllocator) Allocate(ctx context.Context) (string, error) {
	backoff := retry.WithMaxRetries(MaxIDAttempts-1, retry.NewConstant(time.Nanosecond))
	id, err := retry.DoValue(ctx, backoff, func(ctx context.Context) (string, error) {
		id, err := a.generate()
		if err != nil {
			return "", oops.Code("AUTH_ID_GENERATE_FAILED").Wrap(err)
		}

		exists, err := a.accounts.Exists(ctx, id)
		if err != nil {
			return "", oops.Code("AUTH_ID_CHECK_FAILED").
				With("operation", "check id exists").
				Wrap(err)
		}
		if exists {
			return "", retry.RetryableError(errIDCollision)
		}
		return id, nil
	})
	if errors.Is(err, errIDCollision) {
		return "", oops.Code("AUTH_ID_EXHAUSTED").
			With("attempts", MaxIDAttempts).
			Wrap(err)
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

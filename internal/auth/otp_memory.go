// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// MemoryOTPStore keeps challenges in process memory. Challenges do not
// survive a restart and are not shared between replicas.
type MemoryOTPStore struct {
	mu         sync.Mutex
	challenges map[string]OTPChallenge
}

// NewMemoryOTPStore creates an empty MemoryOTPStore.
func NewMemoryOTPStore() *MemoryOTPStore {
	return &MemoryOTPStore{challenges: make(map[string]OTPChallenge)}
}

// Replace stores challenge, discarding any earlier one for the account.
func (s *MemoryOTPStore) Replace(_ context.Context, challenge *OTPChallenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.challenges[challenge.AccountID] = *challenge
	return nil
}

// Get returns a copy of the account's challenge.
func (s *MemoryOTPStore) Get(_ context.Context, accountID string) (*OTPChallenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.challenges[accountID]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

// Consume deletes the challenge only if it is still the current one.
func (s *MemoryOTPStore) Consume(_ context.Context, accountID string, id ulid.ULID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.challenges[accountID]
	if !ok || c.ID != id {
		return ErrNotFound
	}
	delete(s.challenges, accountID)
	return nil
}

// DeleteExpired drops challenges that expired before now.
func (s *MemoryOTPStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, c := range s.challenges {
		if c.IsExpiredAt(now) {
			delete(s.challenges, id)
			n++
		}
	}
	return n, nil
}

var _ OTPStore = (*MemoryOTPStore)(nil)

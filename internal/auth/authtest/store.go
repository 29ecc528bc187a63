// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package authtest provides in-memory auth repositories for tests.
package authtest

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/authcore/internal/auth"
)

// AccountStore is an in-memory auth.AccountRepository that enforces the
// same uniqueness rules as the database schema.
type AccountStore struct {
	mu       sync.Mutex
	accounts map[string]auth.Account
	profiles map[string]auth.Profile
}

// NewAccountStore creates an empty AccountStore.
func NewAccountStore() *AccountStore {
	return &AccountStore{
		accounts: make(map[string]auth.Account),
		profiles: make(map[string]auth.Profile),
	}
}

func (s *AccountStore) Create(_ context.Context, account *auth.Account, profile *auth.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[account.ID]; ok {
		return oops.Code("ACCOUNT_ID_TAKEN").Wrap(auth.ErrConflict)
	}
	for _, a := range s.accounts {
		if strings.EqualFold(a.Email, account.Email) {
			return oops.Code("ACCOUNT_EMAIL_TAKEN").Wrap(auth.ErrConflict)
		}
	}
	s.accounts[account.ID] = *account
	s.profiles[account.ID] = *profile
	return nil
}

func (s *AccountStore) GetByID(_ context.Context, id string) (*auth.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, notFound()
	}
	return &a, nil
}

func (s *AccountStore) GetByEmail(_ context.Context, email string) (*auth.Account, error) {
	return s.find(func(a auth.Account) bool { return strings.EqualFold(a.Email, email) })
}

func (s *AccountStore) GetByUsername(_ context.Context, username string) (*auth.Account, error) {
	return s.find(func(a auth.Account) bool {
		return a.Username != nil && strings.EqualFold(*a.Username, username)
	})
}

func (s *AccountStore) Exists(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.accounts[id]
	return ok, nil
}

func (s *AccountStore) SetUsername(_ context.Context, id, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return notFound()
	}
	if a.Username != nil {
		if strings.EqualFold(*a.Username, username) {
			return nil
		}
		return oops.Code("USERNAME_ALREADY_SET").Wrap(auth.ErrConflict)
	}
	for otherID, other := range s.accounts {
		if otherID != id && other.Username != nil && strings.EqualFold(*other.Username, username) {
			return oops.Code("ACCOUNT_USERNAME_TAKEN").Wrap(auth.ErrConflict)
		}
	}
	a.Username = &username
	a.UpdatedAt = time.Now().UTC()
	s.accounts[id] = a
	return nil
}

func (s *AccountStore) SetPasswordHash(_ context.Context, id, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return notFound()
	}
	a.PasswordHash = passwordHash
	a.UpdatedAt = time.Now().UTC()
	s.accounts[id] = a
	return nil
}

func (s *AccountStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[id]; !ok {
		return notFound()
	}
	delete(s.accounts, id)
	delete(s.profiles, id)
	return nil
}

// Profile returns the stored profile for an account.
func (s *AccountStore) Profile(id string) (auth.Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	return p, ok
}

func (s *AccountStore) find(match func(auth.Account) bool) (*auth.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if match(a) {
			return &a, nil
		}
	}
	return nil, notFound()
}

func notFound() error {
	return oops.Code("ACCOUNT_NOT_FOUND").Wrap(auth.ErrNotFound)
}

// ResetStore is an in-memory auth.PasswordResetRepository.
type ResetStore struct {
	mu     sync.Mutex
	resets map[ulid.ULID]auth.PasswordReset
}

// NewResetStore creates an empty ResetStore.
func NewResetStore() *ResetStore {
	return &ResetStore{resets: make(map[ulid.ULID]auth.PasswordReset)}
}

func (s *ResetStore) Create(_ context.Context, reset *auth.PasswordReset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resets[reset.ID] = *reset
	return nil
}

func (s *ResetStore) GetByAccount(_ context.Context, accountID string) (*auth.PasswordReset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *auth.PasswordReset
	for _, r := range s.resets {
		if r.AccountID == accountID && (latest == nil || r.CreatedAt.After(latest.CreatedAt)) {
			latest = &r
		}
	}
	if latest == nil {
		return nil, auth.ErrNotFound
	}
	return latest, nil
}

func (s *ResetStore) GetByTokenHash(_ context.Context, tokenHash string) (*auth.PasswordReset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.resets {
		if r.TokenHash == tokenHash {
			return &r, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (s *ResetStore) Delete(_ context.Context, id ulid.ULID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.resets, id)
	return nil
}

func (s *ResetStore) DeleteByAccount(_ context.Context, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, r := range s.resets {
		if r.AccountID == accountID {
			delete(s.resets, id)
		}
	}
	return nil
}

func (s *ResetStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, r := range s.resets {
		if now.After(r.ExpiresAt) {
			delete(s.resets, id)
			n++
		}
	}
	return n, nil
}

var (
	_ auth.AccountRepository       = (*AccountStore)(nil)
	_ auth.PasswordResetRepository = (*ResetStore)(nil)
)

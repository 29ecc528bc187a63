// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/samber/oops"
)

// Username validation constraints.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
)

// MaxEmailLength is the longest address accepted at registration.
const MaxEmailLength = 254

// usernameRegex matches usernames that:
// - Start with a letter (a-z, A-Z)
// - Contain only letters, numbers, and underscores
var usernameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// Account is an identity record.
type Account struct {
	ID           string
	Email        string
	Username     *string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasUsername reports whether the account has claimed a non-blank username.
func (a *Account) HasUsername() bool {
	return a.Username != nil && strings.TrimSpace(*a.Username) != ""
}

// Profile holds secondary attributes keyed 1:1 by account id.
type Profile struct {
	AccountID string
	FirstName string
	LastName  *string
}

// NewAccount builds an Account and its Profile for registration.
// The email is normalized; validation is the caller's responsibility.
func NewAccount(id, email, passwordHash, firstName string, lastName *string) (*Account, *Profile) {
	now := time.Now().UTC()
	return &Account{
			ID:           id,
			Email:        NormalizeEmail(email),
			PasswordHash: passwordHash,
			CreatedAt:    now,
			UpdatedAt:    now,
		}, &Profile{
			AccountID: id,
			FirstName: strings.TrimSpace(firstName),
			LastName:  lastName,
		}
}

// NormalizeEmail trims surrounding whitespace and lowercases the address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks that email is a single bare address.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return oops.Code("AUTH_INVALID_EMAIL").Public("Email is required.").Errorf("email cannot be empty")
	}
	if len(email) > MaxEmailLength {
		return oops.Code("AUTH_INVALID_EMAIL").
			With("max", MaxEmailLength).
			Public("Email is too long.").
			Errorf("email must be at most %d characters", MaxEmailLength)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return oops.Code("AUTH_INVALID_EMAIL").Public("Email is invalid.").Errorf("email is not a valid address")
	}
	return nil
}

// ValidateUsername validates a username against rules.
// Username requirements:
// - Length: MinUsernameLength to MaxUsernameLength characters
// - Must start with a letter
// - Can contain only letters (a-z, A-Z), numbers (0-9), and underscores (_)
func ValidateUsername(username string) error {
	if username == "" {
		return oops.Code("AUTH_INVALID_USERNAME").
			Public("Username is required").
			Errorf("username cannot be empty")
	}
	if len(username) < MinUsernameLength {
		return oops.Code("AUTH_INVALID_USERNAME").
			With("min", MinUsernameLength).
			Public("Username is too short").
			Errorf("username must be at least %d characters", MinUsernameLength)
	}
	if len(username) > MaxUsernameLength {
		return oops.Code("AUTH_INVALID_USERNAME").
			With("max", MaxUsernameLength).
			Public("Username is too long").
			Errorf("username must be at most %d characters", MaxUsernameLength)
	}
	if !usernameRegex.MatchString(username) {
		return oops.Code("AUTH_INVALID_USERNAME").
			Public("Username may contain only letters, numbers and underscores, starting with a letter").
			Errorf("username must start with a letter and contain only letters, numbers, and underscores")
	}
	return nil
}

// AccountRepository owns account records and enforces email and username
// uniqueness. Implementations return errors wrapping ErrNotFound for missing
// rows and ErrConflict for uniqueness violations.
type AccountRepository interface {
	// Create stores a new account and its profile atomically.
	Create(ctx context.Context, account *Account, profile *Profile) error

	// GetByID retrieves an account by ID.
	GetByID(ctx context.Context, id string) (*Account, error)

	// GetByEmail retrieves an account by email (case-insensitive).
	GetByEmail(ctx context.Context, email string) (*Account, error)

	// GetByUsername retrieves an account by username (case-insensitive).
	GetByUsername(ctx context.Context, username string) (*Account, error)

	// Exists reports whether an account with the given ID is stored.
	Exists(ctx context.Context, id string) (bool, error)

	// SetUsername assigns a username to an account that has none. It
	// succeeds without a write when the stored username already matches
	// case-insensitively, and fails with USERNAME_ALREADY_SET wrapping
	// ErrConflict when a different one is stored.
	SetUsername(ctx context.Context, id, username string) error

	// SetPasswordHash replaces the password hash for an account.
	SetPasswordHash(ctx context.Context, id, passwordHash string) error

	// Delete removes an account and its dependent rows.
	Delete(ctx context.Context, id string) error
}

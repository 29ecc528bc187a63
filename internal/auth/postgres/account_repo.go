// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/holomush/authcore/internal/auth"
	"github.com/holomush/authcore/internal/store"
)

const accountColumns = `id, email, username, password_hash, created_at, updated_at`

// AccountRepository implements auth.AccountRepository using PostgreSQL.
type AccountRepository struct {
	pool store.Pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool store.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Create inserts the account and its profile in one transaction.
func (r *AccountRepository) Create(ctx context.Context, account *auth.Account, profile *auth.Profile) (err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return oops.Code("ACCOUNT_CREATE_FAILED").With("operation", "begin").Wrap(err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx) //nolint:errcheck // original error takes precedence
		}
	}()

	_, err = tx.Exec(ctx, `
		INSERT INTO accounts (id, email, username, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, account.ID, account.Email, account.Username, account.PasswordHash, account.CreatedAt, account.UpdatedAt)
	if err != nil {
		if conflict := conflictError(err); conflict != nil {
			return conflict
		}
		return oops.Code("ACCOUNT_CREATE_FAILED").
			With("operation", "insert account").
			With("account_id", account.ID).
			Wrap(err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO account_profiles (account_id, first_name, last_name)
		VALUES ($1, $2, $3)
	`, profile.AccountID, profile.FirstName, profile.LastName)
	if err != nil {
		return oops.Code("ACCOUNT_CREATE_FAILED").
			With("operation", "insert profile").
			With("account_id", account.ID).
			Wrap(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return oops.Code("ACCOUNT_CREATE_FAILED").With("operation", "commit").Wrap(err)
	}
	return nil
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*auth.Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	return r.get(row, "id", id)
}

// GetByEmail retrieves an account by email (case-insensitive).
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*auth.Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE LOWER(email) = LOWER($1)`, email)
	return r.get(row, "email", email)
}

// GetByUsername retrieves an account by username (case-insensitive).
func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (*auth.Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE LOWER(username) = LOWER($1)`, username)
	return r.get(row, "username", username)
}

func (r *AccountRepository) get(row pgx.Row, key, value string) (*auth.Account, error) {
	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").With(key, value).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_FAILED").With(key, value).Wrap(err)
	}
	return account, nil
}

// Exists reports whether an account with id is stored.
func (r *AccountRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, oops.Code("ACCOUNT_EXISTS_FAILED").With("id", id).Wrap(err)
	}
	return exists, nil
}

// SetUsername assigns username to an account whose username is unset. The
// partial unique index on LOWER(username) rejects names held by another
// account. When no row is updated the account is re-read to report why.
func (r *AccountRepository) SetUsername(ctx context.Context, id, username string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE accounts SET username = $2, updated_at = $3 WHERE id = $1 AND username IS NULL
	`, id, username, time.Now().UTC())
	if err != nil {
		if conflict := conflictError(err); conflict != nil {
			return conflict
		}
		return oops.Code("ACCOUNT_SET_USERNAME_FAILED").With("id", id).Wrap(err)
	}
	if result.RowsAffected() > 0 {
		return nil
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if current.Username != nil && strings.EqualFold(*current.Username, username) {
		return nil
	}
	return oops.Code("USERNAME_ALREADY_SET").
		With("id", id).
		Wrap(auth.ErrConflict)
}

// SetPasswordHash replaces the account's password hash.
func (r *AccountRepository) SetPasswordHash(ctx context.Context, id, passwordHash string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE accounts SET password_hash = $2, updated_at = $3 WHERE id = $1
	`, id, passwordHash, time.Now().UTC())
	if err != nil {
		return oops.Code("ACCOUNT_SET_PASSWORD_FAILED").With("id", id).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").With("id", id).Wrap(auth.ErrNotFound)
	}
	return nil
}

// Delete removes an account. Profiles, challenges and reset tokens cascade.
func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return oops.Code("ACCOUNT_DELETE_FAILED").With("id", id).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").With("id", id).Wrap(auth.ErrNotFound)
	}
	return nil
}

// scanAccount scans one row. pgx.ErrNoRows is returned unwrapped.
func scanAccount(row pgx.Row) (*auth.Account, error) {
	var a auth.Account
	err := row.Scan(&a.ID, &a.Email, &a.Username, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with lookup context
	}
	return &a, nil
}

// Compile-time interface check.
var _ auth.AccountRepository = (*AccountRepository)(nil)

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package postgres provides PostgreSQL implementations of auth repositories.
package postgres

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/holomush/authcore/internal/auth"
)

// Unique index names from the accounts migration.
const (
	constraintAccountEmail    = "accounts_email_key"
	constraintAccountUsername = "accounts_username_key"
	constraintAccountPK       = "accounts_pkey"
)

// uniqueViolation returns the violated constraint name if err is a
// unique_violation.
func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}

// conflictError translates a unique violation on the accounts table into
// an error wrapping auth.ErrConflict. It returns nil for any other error.
func conflictError(err error) error {
	constraint, ok := uniqueViolation(err)
	if !ok {
		return nil
	}
	code := "ACCOUNT_CONFLICT"
	switch constraint {
	case constraintAccountEmail:
		code = "ACCOUNT_EMAIL_TAKEN"
	case constraintAccountUsername:
		code = "ACCOUNT_USERNAME_TAKEN"
	case constraintAccountPK:
		code = "ACCOUNT_ID_TAKEN"
	}
	return oops.Code(code).
		With("constraint", constraint).
		Wrap(errors.Join(auth.ErrConflict, err))
}

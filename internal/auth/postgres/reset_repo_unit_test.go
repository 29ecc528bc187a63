// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/authcore/internal/auth"
	"github.com/holomush/authcore/internal/auth/postgres"
	"github.com/holomush/authcore/pkg/errutil"
)

var resetCols = []string{"id", "account_id", "token_hash", "expires_at", "created_at"}

func TestPasswordResetRepository_GetByTokenHash(t *testing.T) {
	ctx := context.Background()
	id := ulid.Make()
	now := time.Now().UTC()

	t.Run("found", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectQuery(`WHERE token_hash = \$1`).WithArgs("h").
			WillReturnRows(pgxmock.NewRows(resetCols).AddRow(id.String(), "acct-1", "h", now.Add(time.Hour), now))

		reset, err := postgres.NewPasswordResetRepository(mock).GetByTokenHash(ctx, "h")
		require.NoError(t, err)
		assert.Equal(t, id, reset.ID)
		assert.Equal(t, "acct-1", reset.AccountID)
	})

	t.Run("missing", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectQuery(`WHERE token_hash = \$1`).WithArgs("h").
			WillReturnRows(pgxmock.NewRows(resetCols))

		_, err := postgres.NewPasswordResetRepository(mock).GetByTokenHash(ctx, "h")
		require.ErrorIs(t, err, auth.ErrNotFound)
		errutil.AssertErrorCode(t, err, "RESET_NOT_FOUND")
	})

	t.Run("query error", func(t *testing.T) {
		mock := newMockPool(t)
		mock.ExpectQuery(`WHERE token_hash = \$1`).WithArgs("h").
			WillReturnError(errors.New("timeout"))

		_, err := postgres.NewPasswordResetRepository(mock).GetByTokenHash(ctx, "h")
		errutil.AssertErrorCode(t, err, "RESET_SCAN_FAILED")
	})
}

func TestPasswordResetRepository_Deletes(t *testing.T) {
	ctx := context.Background()
	id := ulid.Make()
	now := time.Now()

	mock := newMockPool(t)
	mock.ExpectExec(`DELETE FROM password_resets WHERE id`).WithArgs(id.String()).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(`DELETE FROM password_resets WHERE account_id`).WithArgs("acct-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(`DELETE FROM password_resets WHERE expires_at`).WithArgs(now).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))

	repo := postgres.NewPasswordResetRepository(mock)
	require.ErrorIs(t, repo.Delete(ctx, id), auth.ErrNotFound)
	require.NoError(t, repo.DeleteByAccount(ctx, "acct-1"))
	n, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

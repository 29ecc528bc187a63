// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/authcore/internal/auth"
	"github.com/holomush/authcore/pkg/errutil"
)

func TestGenerateResetToken(t *testing.T) {
	token1, hash1, err := auth.GenerateResetToken()
	require.NoError(t, err)
	token2, hash2, err := auth.GenerateResetToken()
	require.NoError(t, err)

	assert.Len(t, token1, 2*auth.ResetTokenBytes)
	assert.Len(t, hash1, 64)
	assert.NotEqual(t, token1, hash1)
	assert.NotEqual(t, token1, token2)
	assert.NotEqual(t, hash1, hash2)
}

func TestVerifyResetToken(t *testing.T) {
	token, hash, err := auth.GenerateResetToken()
	require.NoError(t, err)

	tampered := []byte(token)
	tampered[0], tampered[1] = tampered[1], tampered[0]

	tests := []struct {
		name  string
		token string
		hash  string
		want  bool
	}{
		{"matching token", token, hash, true},
		{"wrong token", "wrongtoken", hash, false},
		{"empty token", "", hash, false},
		{"empty hash", token, "", false},
		{"swapped characters", string(tampered), hash, string(tampered) == token},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, auth.VerifyResetToken(tt.token, tt.hash))
		})
	}
}

func TestNewPasswordReset(t *testing.T) {
	accountID := uuid.NewString()

	t.Run("valid reset", func(t *testing.T) {
		expires := time.Now().Add(auth.ResetTokenExpiry)
		reset, err := auth.NewPasswordReset(accountID, "hash", expires)
		require.NoError(t, err)
		assert.Equal(t, accountID, reset.AccountID)
		assert.Equal(t, "hash", reset.TokenHash)
		assert.False(t, reset.ID.IsZero())
		assert.False(t, reset.IsExpired())
	})

	t.Run("empty account id", func(t *testing.T) {
		_, err := auth.NewPasswordReset("", "hash", time.Now())
		errutil.AssertErrorCode(t, err, "RESET_INVALID_ACCOUNT")
	})

	t.Run("empty token hash", func(t *testing.T) {
		_, err := auth.NewPasswordReset(accountID, "", time.Now())
		errutil.AssertErrorCode(t, err, "RESET_INVALID_TOKEN_HASH")
	})

	t.Run("past expiry is expired", func(t *testing.T) {
		reset, err := auth.NewPasswordReset(accountID, "hash", time.Now().Add(-time.Nanosecond))
		require.NoError(t, err)
		assert.True(t, reset.IsExpired())
	})
}

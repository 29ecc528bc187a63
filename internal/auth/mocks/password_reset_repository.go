// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package mocks

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/holomush/authcore/internal/auth"
)

// MockPasswordResetRepository is a mock of auth.PasswordResetRepository.
type MockPasswordResetRepository struct {
	mock.Mock
}

// NewMockPasswordResetRepository creates a mock that asserts its expectations on cleanup.
func NewMockPasswordResetRepository(t testingT) *MockPasswordResetRepository {
	m := &MockPasswordResetRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockPasswordResetRepository) Create(ctx context.Context, reset *auth.PasswordReset) error {
	return m.Called(ctx, reset).Error(0)
}

func (m *MockPasswordResetRepository) GetByAccount(ctx context.Context, accountID string) (*auth.PasswordReset, error) {
	ret := m.Called(ctx, accountID)
	return resetAt(ret, 0), ret.Error(1)
}

func (m *MockPasswordResetRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*auth.PasswordReset, error) {
	ret := m.Called(ctx, tokenHash)
	return resetAt(ret, 0), ret.Error(1)
}

func (m *MockPasswordResetRepository) Delete(ctx context.Context, id ulid.ULID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockPasswordResetRepository) DeleteByAccount(ctx context.Context, accountID string) error {
	return m.Called(ctx, accountID).Error(0)
}

func (m *MockPasswordResetRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	ret := m.Called(ctx, now)
	return ret.Get(0).(int64), ret.Error(1)
}

func resetAt(ret mock.Arguments, i int) *auth.PasswordReset {
	if v := ret.Get(i); v != nil {
		return v.(*auth.PasswordReset)
	}
	return nil
}

var _ auth.PasswordResetRepository = (*MockPasswordResetRepository)(nil)

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/holomush/authcore/internal/auth"
)

// MockAccountRepository is a mock of auth.AccountRepository.
type MockAccountRepository struct {
	mock.Mock
}

// NewMockAccountRepository creates a mock that asserts its expectations on cleanup.
func NewMockAccountRepository(t testingT) *MockAccountRepository {
	m := &MockAccountRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockAccountRepository) Create(ctx context.Context, account *auth.Account, profile *auth.Profile) error {
	return m.Called(ctx, account, profile).Error(0)
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*auth.Account, error) {
	ret := m.Called(ctx, id)
	return accountAt(ret, 0), ret.Error(1)
}

func (m *MockAccountRepository) GetByEmail(ctx context.Context, email string) (*auth.Account, error) {
	ret := m.Called(ctx, email)
	return accountAt(ret, 0), ret.Error(1)
}

func (m *MockAccountRepository) GetByUsername(ctx context.Context, username string) (*auth.Account, error) {
	ret := m.Called(ctx, username)
	return accountAt(ret, 0), ret.Error(1)
}

func (m *MockAccountRepository) Exists(ctx context.Context, id string) (bool, error) {
	ret := m.Called(ctx, id)
	return ret.Bool(0), ret.Error(1)
}

func (m *MockAccountRepository) SetUsername(ctx context.Context, id, username string) error {
	return m.Called(ctx, id, username).Error(0)
}

func (m *MockAccountRepository) SetPasswordHash(ctx context.Context, id, passwordHash string) error {
	return m.Called(ctx, id, passwordHash).Error(0)
}

func (m *MockAccountRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func accountAt(ret mock.Arguments, i int) *auth.Account {
	if v := ret.Get(i); v != nil {
		return v.(*auth.Account)
	}
	return nil
}

var _ auth.AccountRepository = (*MockAccountRepository)(nil)

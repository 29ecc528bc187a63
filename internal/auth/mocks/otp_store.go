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

// MockOTPStore is a mock of auth.OTPStore.
type MockOTPStore struct {
	mock.Mock
}

// NewMockOTPStore creates a mock that asserts its expectations on cleanup.
func NewMockOTPStore(t testingT) *MockOTPStore {
	m := &MockOTPStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockOTPStore) Replace(ctx context.Context, challenge *auth.OTPChallenge) error {
	return m.Called(ctx, challenge).Error(0)
}

func (m *MockOTPStore) Get(ctx context.Context, accountID string) (*auth.OTPChallenge, error) {
	ret := m.Called(ctx, accountID)
	var c *auth.OTPChallenge
	if v := ret.Get(0); v != nil {
		c = v.(*auth.OTPChallenge)
	}
	return c, ret.Error(1)
}

func (m *MockOTPStore) Consume(ctx context.Context, accountID string, id ulid.ULID) error {
	return m.Called(ctx, accountID, id).Error(0)
}

func (m *MockOTPStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	ret := m.Called(ctx, now)
	return ret.Get(0).(int64), ret.Error(1)
}

var _ auth.OTPStore = (*MockOTPStore)(nil)

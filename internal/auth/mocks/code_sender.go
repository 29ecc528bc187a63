// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/holomush/authcore/internal/auth"
)

// MockCodeSender is a mock of auth.CodeSender.
type MockCodeSender struct {
	mock.Mock
}

// NewMockCodeSender creates a mock that asserts its expectations on cleanup.
func NewMockCodeSender(t testingT) *MockCodeSender {
	m := &MockCodeSender{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockCodeSender) SendLoginCode(ctx context.Context, email, code string, expiresAt time.Time) error {
	return m.Called(ctx, email, code, expiresAt).Error(0)
}

func (m *MockCodeSender) SendResetToken(ctx context.Context, email, token string, expiresAt time.Time) error {
	return m.Called(ctx, email, token, expiresAt).Error(0)
}

var _ auth.CodeSender = (*MockCodeSender)(nil)

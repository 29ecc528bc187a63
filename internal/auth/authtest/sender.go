// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package authtest

import (
	"context"
	"sync"
	"time"

	"github.com/holomush/authcore/internal/auth"
)

// CaptureSender records the last code and reset token sent to each email.
type CaptureSender struct {
	mu     sync.Mutex
	codes  map[string]string
	tokens map[string]string
}

// NewCaptureSender creates an empty CaptureSender.
func NewCaptureSender() *CaptureSender {
	return &CaptureSender{codes: make(map[string]string), tokens: make(map[string]string)}
}

func (s *CaptureSender) SendLoginCode(_ context.Context, email, code string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[email] = code
	return nil
}

func (s *CaptureSender) SendResetToken(_ context.Context, email, token string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[email] = token
	return nil
}

// LoginCode returns the last login code sent to email.
func (s *CaptureSender) LoginCode(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.codes[email]
}

// ResetToken returns the last reset token sent to email.
func (s *CaptureSender) ResetToken(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens[email]
}

var _ auth.CodeSender = (*CaptureSender)(nil)

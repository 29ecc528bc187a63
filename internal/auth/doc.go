// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package auth implements account registration, password and one-time-code
// login, and session token checks.
//
// # Domain Types
//
// Account and Profile are created with NewAccount after the email has been
// normalized and the password hashed. OTPChallenge and PasswordReset store
// only hashes of the secrets handed to users.
//
// # Services
//
//   - Service - registration, usernames, login, session checks
//   - PasswordResetService - password reset flow
//   - Sweeper - periodic removal of expired challenges and reset tokens
//
// Services report failures as oops errors. KindOf maps any returned error
// to the kind the transport layer exposes, and PublicMessage extracts the
// message that is safe to show to users.
package auth

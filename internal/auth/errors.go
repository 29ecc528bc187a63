// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"errors"

	"github.com/samber/oops"
)

// Sentinel errors. Repositories and the ledger wrap these with oops codes;
// callers match them with errors.Is.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")

	ErrOTPNotFound = errors.New("no OTP found")
	ErrOTPInvalid  = errors.New("invalid OTP")
	ErrOTPExpired  = errors.New("OTP expired")

	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
)

// Kind classifies an error for the transport boundary.
type Kind int

// Error kinds surfaced to callers.
const (
	KindInternal Kind = iota
	KindBadRequest
	KindConflict
	KindUnauthorized
	KindNotFound
)

// String returns the machine-checkable name of the kind.
func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// codeKinds maps the oops codes produced by this package and its
// repositories to the kind reported at the boundary. Codes not listed
// here are internal failures.
var codeKinds = map[string]Kind{
	"AUTH_MISSING_FIELDS":      KindBadRequest,
	"AUTH_INVALID_EMAIL":       KindBadRequest,
	"AUTH_INVALID_USERNAME":    KindBadRequest,
	"AUTH_EMPTY_PASSWORD":      KindBadRequest,
	"OTP_NOT_FOUND":            KindBadRequest,
	"OTP_INVALID":              KindBadRequest,
	"OTP_EXPIRED":              KindBadRequest,
	"RESET_TOKEN_EMPTY":        KindBadRequest,
	"RESET_TOKEN_INVALID":      KindBadRequest,
	"RESET_TOKEN_EXPIRED":      KindBadRequest,
	"RESET_PASSWORD_EMPTY":     KindBadRequest,
	"ACCOUNT_EMAIL_TAKEN":      KindConflict,
	"ACCOUNT_USERNAME_TAKEN":   KindConflict,
	"USERNAME_ALREADY_SET":     KindConflict,
	"AUTH_INVALID_CREDENTIALS": KindUnauthorized,
	"AUTH_UNAUTHENTICATED":     KindUnauthorized,
	"TOKEN_INVALID":            KindUnauthorized,
	"TOKEN_EXPIRED":            KindUnauthorized,
	"ACCOUNT_NOT_FOUND":        KindNotFound,
}

// KindOf reports the boundary kind of err. The deepest oops code decides;
// uncoded errors fall back to the package sentinels. Anything else is
// KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	if oopsErr, ok := oops.AsOops(err); ok {
		if code, ok := oopsErr.Code().(string); ok {
			if kind, known := codeKinds[code]; known {
				return kind
			}
		}
	}
	switch {
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrTokenInvalid), errors.Is(err, ErrTokenExpired):
		return KindUnauthorized
	case errors.Is(err, ErrOTPNotFound), errors.Is(err, ErrOTPInvalid), errors.Is(err, ErrOTPExpired):
		return KindBadRequest
	}
	return KindInternal
}

// hasCode reports whether the deepest oops code on err is code.
func hasCode(err error, code string) bool {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return false
	}
	got, _ := oopsErr.Code().(string)
	return got == code
}

// PublicMessage returns the user-safe message attached to err, or fallback
// when none was set. Internal errors always yield fallback.
func PublicMessage(err error, fallback string) string {
	if KindOf(err) == KindInternal {
		return fallback
	}
	return oops.GetPublic(err, fallback)
}

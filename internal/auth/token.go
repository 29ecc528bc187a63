// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Session token configuration.
const (
	SessionTokenExpiry = 7 * 24 * time.Hour
	TokenIssuerName    = "authcore"
	MinTokenSecretLen  = 32
)

// Claims are the identity facts carried by a session token.
// The subject is the account id.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// AccountID returns the subject of the token.
func (c *Claims) AccountID() string {
	return c.Subject
}

// TokenIssuer mints and verifies HS256-signed session tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates a TokenIssuer signing with secret.
func NewTokenIssuer(secret []byte) (*TokenIssuer, error) {
	if len(secret) < MinTokenSecretLen {
		return nil, oops.Code("TOKEN_SECRET_INVALID").
			With("min_length", MinTokenSecretLen).
			Errorf("token secret must be at least %d bytes", MinTokenSecretLen)
	}
	return &TokenIssuer{
		secret: secret,
		ttl:    SessionTokenExpiry,
		now:    time.Now,
	}, nil
}

// WithClock returns a copy of the issuer that reads time from now.
func (t *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	cp := *t
	cp.now = now
	return &cp
}

// Issue signs a token for account, valid for SessionTokenExpiry.
func (t *TokenIssuer) Issue(account *Account) (string, time.Time, error) {
	issuedAt := t.now().UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(t.ttl)

	claims := &Claims{
		Email: account.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        ulid.Make().String(),
			Issuer:    TokenIssuerName,
			Subject:   account.ID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, oops.Code("TOKEN_SIGN_FAILED").
			With("account_id", account.ID).
			Wrap(err)
	}
	return signed, expiresAt, nil
}

// Verify checks the token signature and then its expiry.
// Failures wrap ErrTokenInvalid or ErrTokenExpired.
func (t *TokenIssuer) Verify(token string) (*Claims, error) {
	if token == "" {
		return nil, tokenInvalid(errors.New("empty token"))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(TokenIssuerName),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, oops.Code("TOKEN_EXPIRED").
				Public("invalid or expired token").
				Wrap(errors.Join(ErrTokenExpired, err))
		}
		return nil, tokenInvalid(err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, tokenInvalid(errors.New("token has no subject"))
	}
	return claims, nil
}

func tokenInvalid(cause error) error {
	return oops.Code("TOKEN_INVALID").
		Public("invalid or expired token").
		Wrap(errors.Join(ErrTokenInvalid, cause))
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/samber/oops"
)

// dummyPasswordHash is used when a user doesn't exist to prevent timing attacks.
// We still run password verification to make response time consistent.
// This is NOT a real credential - it's a fake hash that will never match any password.
//
//nolint:gosec // G101: This is an intentionally fake hash for timing attack prevention, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// ServiceConfig holds the collaborators of a Service. All fields are required.
type ServiceConfig struct {
	Accounts AccountRepository
	IDs      *IdentifierAllocator
	OTPs     *OTPLedger
	Tokens   *TokenIssuer
	Hasher   PasswordHasher
	Sender   CodeSender
	Logger   *slog.Logger
}

// Service orchestrates registration, login and session checks.
type Service struct {
	accounts AccountRepository
	ids      *IdentifierAllocator
	otps     *OTPLedger
	tokens   *TokenIssuer
	hasher   PasswordHasher
	sender   CodeSender
	logger   *slog.Logger
}

// NewService creates a Service, rejecting missing collaborators.
func NewService(cfg ServiceConfig) (*Service, error) {
	switch {
	case cfg.Accounts == nil:
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("account repository is required")
	case cfg.IDs == nil:
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("identifier allocator is required")
	case cfg.OTPs == nil:
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("otp ledger is required")
	case cfg.Tokens == nil:
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("token issuer is required")
	case cfg.Hasher == nil:
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("password hasher is required")
	case cfg.Sender == nil:
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("code sender is required")
	case cfg.Logger == nil:
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("logger is required")
	}
	return &Service{
		accounts: cfg.Accounts,
		ids:      cfg.IDs,
		otps:     cfg.OTPs,
		tokens:   cfg.Tokens,
		hasher:   cfg.Hasher,
		sender:   cfg.Sender,
		logger:   cfg.Logger,
	}, nil
}

// RegisterInput carries the registration form.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Register creates an account and its profile. It does not log the caller in.
func (s *Service) Register(ctx context.Context, in RegisterInput) error {
	if strings.TrimSpace(in.Email) == "" || in.Password == "" || strings.TrimSpace(in.FirstName) == "" {
		return missingFields("Missing fields.")
	}
	if err := ValidateEmail(in.Email); err != nil {
		return err
	}
	email := NormalizeEmail(in.Email)

	// The unique index on email is authoritative; this only gives an early answer.
	_, err := s.accounts.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return emailTaken(ErrConflict)
	case !errors.Is(err, ErrNotFound):
		return oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "get account by email").
			Wrap(err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	id, err := s.ids.Allocate(ctx)
	if err != nil {
		return oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "allocate id").
			Wrap(err)
	}

	var lastName *string
	if ln := strings.TrimSpace(in.LastName); ln != "" {
		lastName = &ln
	}
	account, profile := NewAccount(id, email, hash, in.FirstName, lastName)

	if err := s.accounts.Create(ctx, account, profile); err != nil {
		if hasCode(err, "ACCOUNT_EMAIL_TAKEN") {
			return emailTaken(err)
		}
		if errors.Is(err, ErrConflict) {
			// Any other conflict is an id collision.
			return oops.Code("AUTH_REGISTER_FAILED").
				With("operation", "create account").
				With("account_id", id).
				Errorf("create account: %v", err)
		}
		return oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "create account").
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "account registered", "account_id", id)
	return nil
}

// UsernameAvailable reports whether no account holds username.
func (s *Service) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return false, missingFields("Username is required.")
	}

	_, err := s.accounts.GetByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if errors.Is(err, ErrNotFound) {
		return true, nil
	}
	return false, oops.Code("AUTH_USERNAME_CHECK_FAILED").
		With("operation", "get account by username").
		Wrap(err)
}

// ClaimUsername assigns username to the authenticated account. A username
// is set once; repeating the same claim succeeds without a write.
func (s *Service) ClaimUsername(ctx context.Context, accountID, username string) error {
	if accountID == "" {
		return unauthenticated("Unauthorized")
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return missingFields("Username is required")
	}
	if err := ValidateUsername(username); err != nil {
		return err
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return accountLookupFailed("AUTH_CLAIM_USERNAME_FAILED", err)
	}
	if account.HasUsername() {
		if strings.EqualFold(*account.Username, username) {
			return nil
		}
		return usernameAlreadySet(accountID, ErrConflict)
	}

	// Advisory; SetUsername's unique constraint decides races.
	holder, err := s.accounts.GetByUsername(ctx, username)
	switch {
	case err == nil && holder.ID != accountID:
		return usernameTaken(ErrConflict)
	case err != nil && !errors.Is(err, ErrNotFound):
		return oops.Code("AUTH_CLAIM_USERNAME_FAILED").
			With("operation", "get account by username").
			Wrap(err)
	}

	if err := s.accounts.SetUsername(ctx, accountID, username); err != nil {
		if hasCode(err, "USERNAME_ALREADY_SET") {
			return usernameAlreadySet(accountID, err)
		}
		if errors.Is(err, ErrConflict) {
			return usernameTaken(err)
		}
		return accountLookupFailed("AUTH_CLAIM_USERNAME_FAILED", err)
	}

	s.logger.InfoContext(ctx, "username claimed", "account_id", accountID, "username", username)
	return nil
}

// PasswordLogin authenticates by email or username and password.
// An exact email match takes precedence over a username match.
// Unknown identifiers and wrong passwords produce the same error, and both
// paths run one password verification.
func (s *Service) PasswordLogin(ctx context.Context, identifier, password string) (*Account, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, missingFields("Missing fields")
	}

	account, lookupErr := s.lookupIdentifier(ctx, identifier)

	var targetHash string
	var accountExists bool
	if lookupErr != nil {
		if !errors.Is(lookupErr, ErrNotFound) {
			return nil, oops.Code("AUTH_LOGIN_FAILED").
				With("operation", "lookup identifier").
				Wrap(lookupErr)
		}
		targetHash = dummyPasswordHash
	} else {
		targetHash = account.PasswordHash
		accountExists = true
	}

	valid, verifyErr := s.hasher.Verify(password, targetHash)
	if verifyErr != nil {
		if !accountExists {
			return nil, invalidCredentials()
		}
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			With("account_id", account.ID).
			Wrap(verifyErr)
	}
	if !accountExists || !valid {
		return nil, invalidCredentials()
	}

	if s.hasher.NeedsUpgrade(account.PasswordHash) {
		s.upgradeHash(ctx, account, password)
	}

	s.logger.InfoContext(ctx, "password login succeeded", "account_id", account.ID)
	return account, nil
}

// lookupIdentifier resolves a login identifier, trying email before username.
func (s *Service) lookupIdentifier(ctx context.Context, identifier string) (*Account, error) {
	account, err := s.accounts.GetByEmail(ctx, NormalizeEmail(identifier))
	if err == nil || !errors.Is(err, ErrNotFound) {
		return account, err
	}
	return s.accounts.GetByUsername(ctx, identifier)
}

// upgradeHash rehashes a legacy password hash. Login succeeds regardless.
func (s *Service) upgradeHash(ctx context.Context, account *Account, password string) {
	newHash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.WarnContext(ctx, "best-effort password rehash failed",
			"operation", "hash password",
			"account_id", account.ID,
			"error", err,
		)
		return
	}
	if err := s.accounts.SetPasswordHash(ctx, account.ID, newHash); err != nil {
		s.logger.WarnContext(ctx, "best-effort password rehash failed",
			"operation", "set password hash",
			"account_id", account.ID,
			"error", err,
		)
		return
	}
	account.PasswordHash = newHash
}

// RequestLoginOTP issues a login code for the account registered under email
// and hands it to the sender. Delivery failures are logged, not returned.
func (s *Service) RequestLoginOTP(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return missingFields("Email required")
	}

	account, err := s.accounts.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return accountLookupFailed("AUTH_OTP_REQUEST_FAILED", err)
	}

	code, expiresAt, err := s.otps.Issue(ctx, account.ID)
	if err != nil {
		return oops.Code("AUTH_OTP_REQUEST_FAILED").
			With("operation", "issue otp").
			Wrap(err)
	}

	if err := s.sender.SendLoginCode(ctx, account.Email, code, expiresAt); err != nil {
		s.logger.WarnContext(ctx, "login code delivery failed",
			"operation", "SendLoginCode",
			"account_id", account.ID,
			"error", err,
		)
	}

	s.logger.InfoContext(ctx, "login code issued", "account_id", account.ID, "expires_at", expiresAt)
	return nil
}

// VerifyLoginOTP checks a login code and returns a session token on success.
func (s *Service) VerifyLoginOTP(ctx context.Context, email, code string) (string, error) {
	code = strings.TrimSpace(code)
	if strings.TrimSpace(email) == "" || code == "" {
		return "", missingFields("Email and OTP required")
	}

	account, err := s.accounts.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return "", accountLookupFailed("AUTH_OTP_VERIFY_FAILED", err)
	}

	if err := s.otps.Verify(ctx, account.ID, code); err != nil {
		return "", oops.Code("AUTH_OTP_VERIFY_FAILED").
			With("account_id", account.ID).
			Wrap(err)
	}

	token, _, err := s.tokens.Issue(account)
	if err != nil {
		return "", oops.Code("AUTH_OTP_VERIFY_FAILED").
			With("operation", "issue token").
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "otp login succeeded", "account_id", account.ID)
	return token, nil
}

// Authenticate verifies a bearer token without touching the store.
func (s *Service) Authenticate(_ context.Context, token string) (*Claims, error) {
	if token == "" {
		return nil, unauthenticated("No token provided")
	}
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, oops.Code("AUTH_AUTHENTICATE_FAILED").Wrap(err)
	}
	return claims, nil
}

// SessionCheck verifies token and re-reads the account it names, so tokens
// for deleted accounts are rejected.
func (s *Service) SessionCheck(ctx context.Context, token string) (*Account, error) {
	claims, err := s.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.GetByID(ctx, claims.AccountID())
	if err != nil {
		return nil, accountLookupFailed("AUTH_SESSION_CHECK_FAILED", err)
	}
	return account, nil
}

// UsernameStatus returns the account's username, or nil when none is set.
func (s *Service) UsernameStatus(ctx context.Context, accountID string) (*string, error) {
	if accountID == "" {
		return nil, unauthenticated("Unauthorized")
	}
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, accountLookupFailed("AUTH_USERNAME_STATUS_FAILED", err)
	}
	if !account.HasUsername() {
		return nil, nil
	}
	return account.Username, nil
}

// Logout acknowledges a logout. Tokens stay valid until they expire.
func (s *Service) Logout(ctx context.Context) error {
	s.logger.DebugContext(ctx, "logout acknowledged")
	return nil
}

func missingFields(public string) error {
	return oops.Code("AUTH_MISSING_FIELDS").Public(public).Errorf("missing required fields")
}

func unauthenticated(public string) error {
	return oops.Code("AUTH_UNAUTHENTICATED").Public(public).Errorf("no authenticated account")
}

func invalidCredentials() error {
	return oops.Code("AUTH_INVALID_CREDENTIALS").
		Public("Invalid credentials").
		Errorf("invalid identifier or password")
}

func emailTaken(cause error) error {
	return oops.Code("ACCOUNT_EMAIL_TAKEN").Public("Email already registered.").Wrap(cause)
}

func usernameTaken(cause error) error {
	return oops.Code("ACCOUNT_USERNAME_TAKEN").Public("Username already taken").Wrap(cause)
}

func usernameAlreadySet(accountID string, cause error) error {
	return oops.Code("USERNAME_ALREADY_SET").
		With("account_id", accountID).
		Public("Username already set").
		Wrap(cause)
}

// accountLookupFailed wraps a repository error, keeping not-found visible
// to the boundary.
func accountLookupFailed(code string, err error) error {
	if errors.Is(err, ErrNotFound) {
		return oops.Code(code).Public("User not found").Wrap(err)
	}
	return oops.Code(code).With("operation", "account lookup").Wrap(err)
}

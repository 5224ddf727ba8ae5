// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

package account

import (
	"context"
	"errors"
	"log/slog"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// CredentialSigner issues signed bearer credentials for an account.
type CredentialSigner interface {
	// Issue returns a signed credential embedding the account id and username.
	Issue(id ulid.ULID, username string) (string, error)
}

// Notifier delivers lifecycle emails. Implementations may dispatch
// asynchronously; the service never fails an operation on delivery errors.
type Notifier interface {
	// SendVerification delivers the email-verification link for a new account.
	SendVerification(ctx context.Context, account *Account, token string) error

	// SendPasswordReset delivers the password-reset link.
	SendPasswordReset(ctx context.Context, account *Account, token string) error
}

// Service coordinates the account lifecycle operations.
type Service struct {
	repo     Repository
	hasher   PasswordHasher
	signer   CredentialSigner
	notifier Notifier
}

// NewService creates a new Service.
func NewService(repo Repository, hasher PasswordHasher, signer CredentialSigner, notifier Notifier) (*Service, error) {
	if repo == nil {
		return nil, oops.Errorf("account repository is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	if signer == nil {
		return nil, oops.Errorf("credential signer is required")
	}
	if notifier == nil {
		return nil, oops.Errorf("notifier is required")
	}
	return &Service{
		repo:     repo,
		hasher:   hasher,
		signer:   signer,
		notifier: notifier,
	}, nil
}

// Register creates a new unverified account and dispatches exactly one
// verification notification. When the email is already registered no second
// account is created and no notification is sent; this is reported as a
// non-error outcome (created=false) so the caller can answer with the same
// success-shaped response as a fresh registration.
func (s *Service) Register(ctx context.Context, username, email, password string) (acct *Account, created bool, err error) {
	if err := ValidateUsername(username); err != nil {
		return nil, false, err
	}
	if err := ValidateEmail(email); err != nil {
		return nil, false, err
	}
	if password == "" {
		return nil, false, ErrEmptyPassword
	}

	_, err = s.repo.GetByEmail(ctx, email)
	if err == nil {
		return nil, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, oops.Code("ACCOUNT_REGISTER_FAILED").
			With("operation", "get account by email").
			Wrap(err)
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, false, oops.Code("ACCOUNT_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	token, err := GenerateToken()
	if err != nil {
		return nil, false, oops.Code("ACCOUNT_REGISTER_FAILED").
			With("operation", "generate verification token").
			Wrap(err)
	}

	acct, err = NewAccount(username, email, passwordHash, token)
	if err != nil {
		return nil, false, err
	}

	if err := s.repo.Create(ctx, acct); err != nil {
		// The unique index on email is authoritative; losing the race after
		// the pre-check above lands here and is the same duplicate outcome.
		if errors.Is(err, ErrEmailTaken) {
			return nil, false, nil
		}
		return nil, false, oops.Code("ACCOUNT_REGISTER_FAILED").
			With("operation", "create account").
			With("email", email).
			Wrap(err)
	}

	// Delivery failure does not roll back the registration; the account
	// stays registered and unverified.
	if notifyErr := s.notifier.SendVerification(ctx, acct, token); notifyErr != nil {
		slog.Warn("verification notification failed",
			"account_id", acct.ID.String(),
			"error", notifyErr,
		)
	}

	return acct, true, nil
}

// Login authenticates an account by email and password and issues a signed
// bearer credential. The verification gate is checked before any credential
// comparison; an unknown email and a wrong password are the same failure.
func (s *Service) Login(ctx context.Context, email, password string) (*Account, string, error) {
	acct, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, "", oops.Code("ACCOUNT_INVALID_CREDENTIALS").Errorf("invalid credentials")
		}
		return nil, "", oops.Code("ACCOUNT_LOGIN_FAILED").
			With("operation", "get account by email").
			Wrap(err)
	}

	if !acct.Verified {
		return nil, "", oops.Code("ACCOUNT_NOT_VERIFIED").Errorf("email address is not verified")
	}

	valid, err := s.hasher.Verify(password, acct.PasswordHash)
	if err != nil {
		return nil, "", oops.Code("ACCOUNT_LOGIN_FAILED").
			With("operation", "verify password").
			Wrap(err)
	}
	if !valid {
		return nil, "", oops.Code("ACCOUNT_INVALID_CREDENTIALS").Errorf("invalid credentials")
	}

	bearer, err := s.signer.Issue(acct.ID, acct.Username)
	if err != nil {
		return nil, "", oops.Code("ACCOUNT_LOGIN_FAILED").
			With("operation", "issue credential").
			Wrap(err)
	}

	return acct, bearer, nil
}

// VerifyEmail consumes a verification token: the account flips to verified
// and the token is cleared, so a replay of the same token fails.
func (s *Service) VerifyEmail(ctx context.Context, token string) (*Account, error) {
	if token == "" {
		return nil, oops.Code("ACCOUNT_TOKEN_INVALID").Errorf("verification token cannot be empty")
	}

	acct, err := s.repo.GetByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("ACCOUNT_TOKEN_INVALID").Errorf("invalid or expired token")
		}
		return nil, oops.Code("ACCOUNT_VERIFY_FAILED").
			With("operation", "get account by verification token").
			Wrap(err)
	}

	acct.MarkVerified()
	if err := s.repo.Update(ctx, acct); err != nil {
		return nil, oops.Code("ACCOUNT_VERIFY_FAILED").
			With("operation", "update account").
			With("account_id", acct.ID.String()).
			Wrap(err)
	}

	return acct, nil
}

// RequestReset mints a reset token for the account registered under email
// and dispatches exactly one reset notification. An unknown email is
// reported to the caller; unlike Register, this flow does not hide account
// existence.
//
// The token is persisted before the notification is dispatched so a crash
// in between never emails a token that cannot be redeemed.
func (s *Service) RequestReset(ctx context.Context, email string) (*Account, error) {
	acct, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("ACCOUNT_NOT_FOUND").
				With("email", email).
				Errorf("account not found")
		}
		return nil, oops.Code("ACCOUNT_RESET_REQUEST_FAILED").
			With("operation", "get account by email").
			Wrap(err)
	}

	token, err := GenerateToken()
	if err != nil {
		return nil, oops.Code("ACCOUNT_RESET_REQUEST_FAILED").
			With("operation", "generate reset token").
			Wrap(err)
	}

	acct.SetResetToken(token)
	if err := s.repo.Update(ctx, acct); err != nil {
		return nil, oops.Code("ACCOUNT_RESET_REQUEST_FAILED").
			With("operation", "update account").
			With("account_id", acct.ID.String()).
			Wrap(err)
	}

	if notifyErr := s.notifier.SendPasswordReset(ctx, acct, token); notifyErr != nil {
		slog.Warn("password reset notification failed",
			"account_id", acct.ID.String(),
			"error", notifyErr,
		)
	}

	return acct, nil
}

// RedeemReset consumes a reset token and returns the matching account so
// the caller can submit a new password bound to its id. The token is
// cleared on redemption; redeeming it twice fails.
func (s *Service) RedeemReset(ctx context.Context, token string) (*Account, error) {
	if token == "" {
		return nil, oops.Code("ACCOUNT_TOKEN_INVALID").Errorf("reset token cannot be empty")
	}

	acct, err := s.repo.GetByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("ACCOUNT_TOKEN_INVALID").Errorf("invalid or expired token")
		}
		return nil, oops.Code("ACCOUNT_RESET_REDEEM_FAILED").
			With("operation", "get account by reset token").
			Wrap(err)
	}

	acct.RedeemResetToken()
	if err := s.repo.Update(ctx, acct); err != nil {
		return nil, oops.Code("ACCOUNT_RESET_REDEEM_FAILED").
			With("operation", "update account").
			With("account_id", acct.ID.String()).
			Wrap(err)
	}

	return acct, nil
}

// UpdatePassword hashes the new password and persists it for the account.
// The incoming password is always hashed before storage; plaintext is never
// written. The redemption state of the reset token is not consulted, so any
// caller holding an account id may change its password.
func (s *Service) UpdatePassword(ctx context.Context, id ulid.ULID, newPassword string) (*Account, error) {
	if newPassword == "" {
		return nil, ErrEmptyPassword
	}

	acct, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("ACCOUNT_NOT_FOUND").
				With("account_id", id.String()).
				Errorf("user not found")
		}
		return nil, oops.Code("ACCOUNT_UPDATE_PASSWORD_FAILED").
			With("operation", "get account by id").
			Wrap(err)
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return nil, oops.Code("ACCOUNT_UPDATE_PASSWORD_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	if err := s.repo.UpdatePassword(ctx, acct.ID, passwordHash); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("ACCOUNT_NOT_FOUND").
				With("account_id", id.String()).
				Errorf("user not found")
		}
		return nil, oops.Code("ACCOUNT_UPDATE_PASSWORD_FAILED").
			With("operation", "update password").
			With("account_id", acct.ID.String()).
			Wrap(err)
	}

	acct.PasswordHash = passwordHash
	return acct, nil
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

package account

import (
	"context"
	"net/mail"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Username validation constraints.
const (
	MinUsernameLength = 1
	MaxUsernameLength = 64
)

// Account represents a registered user account.
type Account struct {
	ID           ulid.ULID
	Username     string
	Email        string
	PasswordHash string

	// Verified is false at creation and flips to true exactly once.
	Verified bool

	// VerificationToken is present while the account is unverified and the
	// token has not been consumed; cleared to "" on successful verification.
	VerificationToken string

	// ResetToken is present while a password reset is pending and
	// unconsumed; cleared to "" on redemption.
	ResetToken string

	// ResetTokenRedeemed becomes true once the current reset token has been
	// redeemed. A fresh reset request issues a new token, so it never needs
	// to be flipped back.
	ResetTokenRedeemed bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewAccount creates a validated, unverified Account with a minted ID.
// The password hash and verification token must already be derived;
// hashing and token generation are the caller's concern.
func NewAccount(username, email, passwordHash, verificationToken string) (*Account, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if passwordHash == "" {
		return nil, oops.Code("ACCOUNT_INVALID_HASH").Errorf("password hash cannot be empty")
	}
	if verificationToken == "" {
		return nil, oops.Code("ACCOUNT_INVALID_TOKEN").Errorf("verification token cannot be empty")
	}

	now := time.Now()
	return &Account{
		ID:                ulid.Make(),
		Username:          username,
		Email:             email,
		PasswordHash:      passwordHash,
		Verified:          false,
		VerificationToken: verificationToken,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// MarkVerified flips the account to verified and consumes the
// verification token.
func (a *Account) MarkVerified() {
	a.Verified = true
	a.VerificationToken = ""
	a.UpdatedAt = time.Now()
}

// SetResetToken records a pending password reset token.
func (a *Account) SetResetToken(token string) {
	a.ResetToken = token
	a.UpdatedAt = time.Now()
}

// RedeemResetToken consumes the pending reset token.
func (a *Account) RedeemResetToken() {
	a.ResetToken = ""
	a.ResetTokenRedeemed = true
	a.UpdatedAt = time.Now()
}

// ValidateUsername validates a username against rules.
func ValidateUsername(username string) error {
	if username == "" {
		return oops.Code("ACCOUNT_INVALID_USERNAME").Errorf("username cannot be empty")
	}
	if len(username) > MaxUsernameLength {
		return oops.Code("ACCOUNT_INVALID_USERNAME").
			With("max", MaxUsernameLength).
			Errorf("username must be at most %d characters", MaxUsernameLength)
	}
	return nil
}

// ValidateEmail validates an email address.
func ValidateEmail(email string) error {
	if email == "" {
		return oops.Code("ACCOUNT_INVALID_EMAIL").Errorf("email cannot be empty")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return oops.Code("ACCOUNT_INVALID_EMAIL").
			With("email", email).
			Errorf("email address is not valid")
	}
	return nil
}

// Repository manages account persistence.
type Repository interface {
	// Create stores a new account. Returns ErrEmailTaken (wrapped) if the
	// email is already registered.
	Create(ctx context.Context, account *Account) error

	// GetByID retrieves an account by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*Account, error)

	// GetByEmail retrieves an account by email (as stored, case-sensitive).
	GetByEmail(ctx context.Context, email string) (*Account, error)

	// GetByVerificationToken retrieves an account by its pending
	// verification token. Returns ErrNotFound for unknown or consumed tokens.
	GetByVerificationToken(ctx context.Context, token string) (*Account, error)

	// GetByResetToken retrieves an account by its pending reset token.
	// Returns ErrNotFound for unknown or consumed tokens.
	GetByResetToken(ctx context.Context, token string) (*Account, error)

	// Update updates an existing account. Returns ErrNotFound if absent.
	Update(ctx context.Context, account *Account) error

	// UpdatePassword updates only the password hash for an account.
	UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash string) error
}

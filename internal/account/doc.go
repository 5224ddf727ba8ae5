// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

// Package account implements the account lifecycle state machine.
//
// # Domain Types
//
// An Account is created once by registration and mutated by email
// verification, reset requests, reset redemption, and password updates.
// Use NewAccount rather than direct struct initialization; it validates
// inputs and mints the identifier.
//
// # Tokens
//
// Verification and reset tokens are high-entropy opaque strings stored on
// the account record itself. They are single-use: a successful match clears
// the field, so replaying a consumed token fails. There is no time-based
// expiry; clearing on consumption is the only invalidation.
//
// # Services
//
// Service coordinates the lifecycle operations (Register, Login,
// VerifyEmail, RequestReset, RedeemReset, UpdatePassword) over a
// Repository, a PasswordHasher, a credential Signer, and a Notifier.
package account

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

package account

import "errors"

// ErrNotFound is returned when a requested account does not exist.
var ErrNotFound = errors.New("not found")

// ErrEmailTaken is returned by Repository.Create when the email is already
// registered. Registration treats this as a non-fatal outcome.
var ErrEmailTaken = errors.New("email already registered")

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

package account

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/samber/oops"
)

// TokenBytes is the entropy of an opaque token. 32 bytes = 64 hex chars.
const TokenBytes = 32

// GenerateToken creates a cryptographically random opaque token.
// Tokens are stored on the account record and compared by exact lookup;
// they carry no semantic structure and are invalidated by clearing the
// field on first use.
func GenerateToken() (string, error) {
	buf := make([]byte, TokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", oops.Code("ACCOUNT_TOKEN_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			With("requested_bytes", TokenBytes).
			Wrap(err)
	}
	return hex.EncodeToString(buf), nil
}

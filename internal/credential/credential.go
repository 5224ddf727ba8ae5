// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

// Package credential issues and verifies signed bearer credentials.
package credential

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Claims are the statements embedded in a bearer credential: the standard
// registered claims plus the account username.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

// Identity is the verified content of a bearer credential.
type Identity struct {
	AccountID ulid.ULID `json:"id"`
	Username  string    `json:"username"`
}

// Signer signs and verifies HS256 bearer credentials with a process-wide
// secret.
//
// Issued credentials carry no expiry claim, matching the contract the
// service's clients already depend on. Adding an ExpiresAt here would
// invalidate long-lived clients and is a deliberate, separate decision.
type Signer struct {
	secret []byte
}

// NewSigner creates a Signer. The secret must be non-empty.
func NewSigner(secret []byte) (*Signer, error) {
	if len(secret) == 0 {
		return nil, oops.Code("CREDENTIAL_EMPTY_SECRET").Errorf("signing secret cannot be empty")
	}
	return &Signer{secret: secret}, nil
}

// Issue returns a signed credential embedding the account id and username.
func (s *Signer) Issue(id ulid.ULID, username string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: id.String(),
		},
		Username: username,
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", oops.Code("CREDENTIAL_SIGN_FAILED").Wrap(err)
	}
	return signed, nil
}

// Verify parses and validates a bearer credential, returning the identity
// it asserts. Credentials signed with another algorithm or secret are
// rejected.
func (s *Signer) Verify(bearer string) (*Identity, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(bearer, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, oops.Code("CREDENTIAL_INVALID").Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, oops.Code("CREDENTIAL_INVALID").Wrap(err)
	}
	if !token.Valid {
		return nil, oops.Code("CREDENTIAL_INVALID").Errorf("invalid credential")
	}

	id, err := ulid.Parse(claims.Subject)
	if err != nil {
		return nil, oops.Code("CREDENTIAL_INVALID").
			With("subject", claims.Subject).
			Wrap(err)
	}

	return &Identity{AccountID: id, Username: claims.Username}, nil
}

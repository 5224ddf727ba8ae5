// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

package credential_test

import (
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keygate/keygate/internal/credential"
)

func TestNewSigner_EmptySecret(t *testing.T) {
	signer, err := credential.NewSigner(nil)
	require.Error(t, err)
	assert.Nil(t, signer)
}

func TestSigner_IssueAndVerify(t *testing.T) {
	signer, err := credential.NewSigner([]byte("super-secret"))
	require.NoError(t, err)

	id := ulid.Make()
	bearer, err := signer.Issue(id, "bob")
	require.NoError(t, err)
	require.NotEmpty(t, bearer)

	identity, err := signer.Verify(bearer)
	require.NoError(t, err)
	assert.Equal(t, id, identity.AccountID)
	assert.Equal(t, "bob", identity.Username)
}

func TestSigner_Verify_WrongSecret(t *testing.T) {
	signer, err := credential.NewSigner([]byte("right-secret"))
	require.NoError(t, err)

	bearer, err := signer.Issue(ulid.Make(), "bob")
	require.NoError(t, err)

	other, err := credential.NewSigner([]byte("wrong-secret"))
	require.NoError(t, err)

	_, err = other.Verify(bearer)
	require.Error(t, err)
}

func TestSigner_Verify_Malformed(t *testing.T) {
	signer, err := credential.NewSigner([]byte("secret"))
	require.NoError(t, err)

	_, err = signer.Verify("not.a.jwt")
	require.Error(t, err)
}

func TestSigner_Verify_RejectsUnsignedAlg(t *testing.T) {
	signer, err := credential.NewSigner([]byte("secret"))
	require.NoError(t, err)

	// alg=none token must never verify.
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": ulid.Make().String()})
	bearer, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = signer.Verify(bearer)
	require.Error(t, err)
}

func TestSigner_Issue_NoExpiryClaim(t *testing.T) {
	signer, err := credential.NewSigner([]byte("secret"))
	require.NoError(t, err)

	bearer, err := signer.Issue(ulid.Make(), "bob")
	require.NoError(t, err)

	parts := strings.Split(bearer, ".")
	require.Len(t, parts, 3)

	claims := &credential.Claims{}
	_, _, err = jwt.NewParser().ParseUnverified(bearer, claims)
	require.NoError(t, err)
	assert.Nil(t, claims.ExpiresAt, "credentials are issued without an expiry claim")
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/keygate/keygate/internal/credential"
)

// TokenVerifier validates a bearer credential and returns the identity
// it was issued for.
type TokenVerifier interface {
	Verify(bearer string) (*credential.Identity, error)
}

type contextKey int

const identityKey contextKey = iota

// IdentityFromContext returns the authenticated identity stored by the
// bearer middleware, if any.
func IdentityFromContext(ctx context.Context) (*credential.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(*credential.Identity)
	return identity, ok
}

// requireBearer rejects requests without a valid Authorization header.
// A missing token answers 401, a present but invalid one 403.
func requireBearer(verifier TokenVerifier, h *handlers) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				h.writeMessage(w, r, http.StatusUnauthorized, msgMissingBearer)
				return
			}

			identity, err := verifier.Verify(token)
			if err != nil {
				h.writeMessage(w, r, http.StatusForbidden, msgInvalidBearer)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from an "Authorization: Bearer x" header.
// A bare token without the scheme prefix is accepted too.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	if token, found := strings.CutPrefix(header, "Bearer "); found {
		return strings.TrimSpace(token)
	}
	return strings.TrimSpace(header)
}

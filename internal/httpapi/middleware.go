// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/accountd/accountd/internal/account"
)

type ctxKey int

const claimsKey ctxKey = 0

// ClaimsFromContext returns the session claims stored by the auth
// middleware, if any.
func ClaimsFromContext(ctx context.Context) (*account.SessionClaims, bool) {
	claims, ok := ctx.Value(claimsKey).(*account.SessionClaims)
	return claims, ok
}

// requireSession verifies the bearer token on the request and stores
// its claims in the request context. Requests without a valid token
// get a 401 and never reach next.
func (h *Handler) requireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing bearer token"})
			return
		}

		claims, err := h.signer.VerifySession(token)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid or expired token"})
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next(w, r.WithContext(ctx))
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return header[len(prefix):], true
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/holomush/authcore/internal/auth"
)

type claimsKey struct{}

// bearerToken extracts the token from "Authorization: Bearer <token>".
// Missing or malformed headers yield "".
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// requireBearer rejects requests without a valid token and stores the
// verified claims in the request context.
func (h *handler) requireBearer(operation string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := h.auth.Authenticate(r.Context(), bearerToken(r))
			if err != nil {
				h.metrics.ObserveRequest(operation, auth.KindOf(err).String(), 0)
				writeError(w, h.logger, operation, err)
				return
			}
			ctx := context.WithValue(r.Context(), claimsKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// accountID returns the authenticated account id, or "" outside requireBearer.
func accountID(ctx context.Context) string {
	claims, ok := ctx.Value(claimsKey{}).(*auth.Claims)
	if !ok {
		return ""
	}
	return claims.AccountID()
}

package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// Denylist is the revoked-token lookup the middleware consults.
type Denylist interface {
	IsTokenRevoked(ctx context.Context, tokenID string) bool
}

// Middleware authenticates requests and enforces role boundaries.
type Middleware struct {
	issuer   *TokenIssuer
	denylist Denylist
}

// NewMiddleware wires the token issuer and the revocation store.
func NewMiddleware(issuer *TokenIssuer, denylist Denylist) *Middleware {
	return &Middleware{issuer: issuer, denylist: denylist}
}

// RequireRole rejects requests whose bearer token is missing, invalid,
// revoked, or carries a different role. Valid claims are placed on the
// request context.
func (m *Middleware) RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := extractBearerToken(r)
			if tokenStr == "" {
				writeError(w, http.StatusUnauthorized, "missing authorization token")
				return
			}

			claims, err := m.issuer.Parse(tokenStr)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			if m.denylist != nil && m.denylist.IsTokenRevoked(r.Context(), claims.ID) {
				writeError(w, http.StatusUnauthorized, "token revoked")
				return
			}
			if claims.Role != role {
				writeError(w, http.StatusUnauthorized, "wrong token role")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type ctxKey string

const claimsKey ctxKey = "claims"

// ClaimsFromContext returns the authenticated claims, or nil outside an
// authenticated route.
func ClaimsFromContext(ctx context.Context) *Claims {
	c, _ := ctx.Value(claimsKey).(*Claims)
	return c
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

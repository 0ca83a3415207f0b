package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDenylist struct {
	revoked map[string]bool
}

func (f *fakeDenylist) IsTokenRevoked(ctx context.Context, tokenID string) bool {
	return f.revoked[tokenID]
}

func newAuthedRequest(t *testing.T, issuer *TokenIssuer, subject, role string) (*http.Request, *Claims) {
	t.Helper()
	token, _, err := issuer.Issue(subject, role, "")
	require.NoError(t, err)
	claims, err := issuer.Parse(token)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req, claims
}

func TestRequireRole(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	denylist := &fakeDenylist{revoked: map[string]bool{}}
	mw := NewMiddleware(issuer, denylist)

	var gotClaims *Claims
	handler := mw.RequireRole(RoleOwner)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClaims = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("missing token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/protected", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong role", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req, _ := newAuthedRequest(t, issuer, "tenant-1", RoleTenant)
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("revoked token", func(t *testing.T) {
		req, claims := newAuthedRequest(t, issuer, "owner-1", RoleOwner)
		denylist.revoked[claims.ID] = true

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token passes claims through", func(t *testing.T) {
		req, claims := newAuthedRequest(t, issuer, "owner-2", RoleOwner)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, gotClaims)
		assert.Equal(t, "owner-2", gotClaims.Subject)
		assert.Equal(t, claims.ID, gotClaims.ID)
	})
}

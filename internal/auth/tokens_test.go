package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	token, expires, err := issuer.Issue("owner-1", RoleOwner, "Pak Kost")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, time.Minute)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "owner-1", claims.Subject)
	assert.Equal(t, RoleOwner, claims.Role)
	assert.Equal(t, "Pak Kost", claims.Name)
	assert.NotEmpty(t, claims.ID)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenIssuer("secret-a", time.Hour)
	other := NewTokenIssuer("secret-b", time.Hour)

	token, _, err := issuer.Issue("owner-1", RoleOwner, "")
	require.NoError(t, err)

	_, err = other.Parse(token)
	assert.Error(t, err)
}

func TestParseRejectsExpired(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, _, err := issuer.Issue("tenant-1", RoleTenant, "")
	require.NoError(t, err)

	fresh := NewTokenIssuer("test-secret", time.Hour)
	_, err = fresh.Parse(token)
	assert.Error(t, err)
}

func TestTokenIDsAreUnique(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	t1, _, err := issuer.Issue("owner-1", RoleOwner, "")
	require.NoError(t, err)
	t2, _, err := issuer.Issue("owner-1", RoleOwner, "")
	require.NoError(t, err)

	c1, err := issuer.Parse(t1)
	require.NoError(t, err)
	c2, err := issuer.Parse(t2)
	require.NoError(t, err)
	assert.NotEqual(t, c1.ID, c2.ID)
}

func TestRemainingTTL(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	token, _, err := issuer.Issue("owner-1", RoleOwner, "")
	require.NoError(t, err)
	claims, err := issuer.Parse(token)
	require.NoError(t, err)

	ttl := issuer.RemainingTTL(claims)
	assert.Greater(t, ttl, 55*time.Minute)
	assert.LessOrEqual(t, ttl, time.Hour)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("rahasia-banget")
	require.NoError(t, err)
	assert.NotEqual(t, "rahasia-banget", hash)

	assert.True(t, CheckPassword(hash, "rahasia-banget"))
	assert.False(t, CheckPassword(hash, "salah"))
	assert.False(t, CheckPassword("", "rahasia-banget"))
}

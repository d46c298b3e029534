package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	apperrors "github.com/lorrc/helpdesk-bridge/internal/core/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_UsesConfiguredTTL(t *testing.T) {
	ttl := 2 * time.Hour
	tm := NewTokenManager("test-secret", ttl)

	start := time.Now()

	token, err := tm.GenerateToken("ops")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := tm.ValidateToken(token)
	require.NoError(t, err)
	require.NotNil(t, claims.ExpiresAt)

	assert.Equal(t, "ops", claims.Subject)
	assert.Equal(t, ScopeAdmin, claims.Scope)
	assert.NotEmpty(t, claims.ID)

	expectedExpiry := start.Add(ttl)
	assert.WithinDuration(t, expectedExpiry, claims.ExpiresAt.Time, 2*time.Second)
}

func TestTokenManager_RejectsBadTokens(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)

	other, err := NewTokenManager("other-secret", time.Hour).GenerateToken("ops")
	require.NoError(t, err)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		Scope: ScopeAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   "ops",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	expiredToken, err := expired.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	noScope := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   "ops",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	})
	noScopeToken, err := noScope.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	tests := map[string]string{
		"garbage":      "not-a-jwt",
		"wrong secret": other,
		"expired":      expiredToken,
		"no scope":     noScopeToken,
	}

	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			claims, err := tm.ValidateToken(token)
			assert.Nil(t, claims)
			assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
		})
	}
}

func TestTokenManager_RequiresSubject(t *testing.T) {
	_, err := NewTokenManager("s", time.Hour).GenerateToken("")
	assert.Error(t, err)
}

package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWT(t *testing.T) {
	jwtService := NewJWTService(JWTConfig{
		SecretKey:     "test-secret-key",
		TokenDuration: 1 * time.Hour,
		Issuer:        "matchcore",
	})

	userID := "user123"
	username := "testuser"
	role := "admin"

	token, err := jwtService.GenerateToken(userID, username, role)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := jwtService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, username, claims.Username)
	assert.Equal(t, role, claims.Role)
	assert.Equal(t, userID, claims.Subject)
	assert.Equal(t, "matchcore", claims.Issuer)
	assert.True(t, claims.ExpiresAt.Time.After(time.Now()))

	_, err = jwtService.ValidateToken("invalid.token.string")
	assert.Error(t, err)

	time.Sleep(1100 * time.Millisecond)
	refreshedToken, err := jwtService.RefreshToken(token)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshedToken)
	assert.NotEqual(t, token, refreshedToken)

	refreshedClaims, err := jwtService.ValidateToken(refreshedToken)
	require.NoError(t, err)
	assert.Equal(t, userID, refreshedClaims.UserID)
	assert.Equal(t, username, refreshedClaims.Username)
	assert.Equal(t, role, refreshedClaims.Role)
}

func TestJWT_ExpiredTokenRejected(t *testing.T) {
	jwtService := NewJWTService(JWTConfig{
		SecretKey:     "test-secret-key",
		TokenDuration: -1 * time.Minute,
		Issuer:        "matchcore",
	})

	token, err := jwtService.GenerateToken("u1", "alice", "trader")
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	assert.Error(t, err)
}

// internal/utils/jwt_test.go
package utils

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	SetJWTSecret("test-secret")

	accountID := uuid.New()
	token, err := GenerateJWT(accountID, "alice", "user", 1)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, accountID.String(), claims.AccountID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "user", claims.Role)
}

func TestValidateJWTRejectsGarbage(t *testing.T) {
	SetJWTSecret("test-secret")

	_, err := ValidateJWT("not-a-token")
	assert.Error(t, err)
}

func TestValidateJWTRejectsWrongSecret(t *testing.T) {
	SetJWTSecret("first-secret")
	token, err := GenerateJWT(uuid.New(), "bob", "admin", 1)
	require.NoError(t, err)

	SetJWTSecret("second-secret")
	_, err = ValidateJWT(token)
	assert.Error(t, err)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	SetJWTSecret("test-secret")

	accountID := uuid.New()
	token, err := GenerateRefreshToken(accountID, 1)
	require.NoError(t, err)

	subject, err := ValidateRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, accountID.String(), subject)
}

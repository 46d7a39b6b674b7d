package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.True(t, CheckPasswordHash("correct horse battery staple", hash))
	assert.False(t, CheckPasswordHash("wrong password", hash))
}

func TestTokenRoundTrip(t *testing.T) {
	InitJWT("test-secret")

	token, err := GenerateToken(42, "alice")
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	InitJWT("test-secret")

	_, err := ParseToken("not.a.token")
	require.Error(t, err)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	InitJWT("secret-one")
	token, err := GenerateToken(1, "bob")
	require.NoError(t, err)

	InitJWT("secret-two")
	_, err = ParseToken(token)
	require.Error(t, err)
}

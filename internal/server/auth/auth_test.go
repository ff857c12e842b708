package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestVerifyPassword_SHA256(t *testing.T) {
	hash := HashPassword("s3cret")
	assert.Len(t, hash, 64)

	assert.True(t, VerifyPassword("s3cret", hash))
	assert.False(t, VerifyPassword("wrong", hash))
	assert.False(t, VerifyPassword("s3cret", ""))
}

func TestVerifyPassword_BcryptCompat(t *testing.T) {
	stored, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, VerifyPassword("s3cret", string(stored)))
	assert.False(t, VerifyPassword("wrong", string(stored)))
}

func TestToken_RoundTrip(t *testing.T) {
	secret := []byte("k")

	token, err := GenerateToken("session-1", secret, time.Hour)
	require.NoError(t, err)

	id, err := GetSessionIDFromToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "session-1", id)
}

func TestToken_WrongSecret(t *testing.T) {
	token, err := GenerateToken("session-1", []byte("k"), time.Hour)
	require.NoError(t, err)

	_, err = GetSessionIDFromToken(token, []byte("other"))
	assert.Error(t, err)
}

func TestToken_Expired(t *testing.T) {
	token, err := GenerateToken("session-1", []byte("k"), -time.Minute)
	require.NoError(t, err)

	_, err = GetSessionIDFromToken(token, []byte("k"))
	assert.Error(t, err)
}

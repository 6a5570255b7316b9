package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_Roundtrip(t *testing.T) {
	salt, err := NewSalt()
	require.NoError(t, err)
	require.Len(t, salt, 32, "16 bytes hex encoded")

	hash, err := HashPassword("hunter2", salt)
	require.NoError(t, err)
	require.Len(t, hash, 64, "32 bytes hex encoded")

	assert.True(t, VerifyPassword("hunter2", salt, hash))
	assert.False(t, VerifyPassword("hunter3", salt, hash))
	assert.False(t, VerifyPassword("", salt, hash))
}

func TestHashPassword_SaltMatters(t *testing.T) {
	s1, err := NewSalt()
	require.NoError(t, err)
	s2, err := NewSalt()
	require.NoError(t, err)
	require.NotEqual(t, s1, s2)

	h1, err := HashPassword("hunter2", s1)
	require.NoError(t, err)
	h2, err := HashPassword("hunter2", s2)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}

func TestHashPassword_RejectsBadSalt(t *testing.T) {
	_, err := HashPassword("hunter2", "not-hex")
	assert.Error(t, err)
	assert.False(t, VerifyPassword("hunter2", "not-hex", "whatever"))
}

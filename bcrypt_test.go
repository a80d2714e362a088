package auth_test

import (
	"testing"

	auth "github.com/edutech/lms-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := auth.HashPassword("sekret#1")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "sekret#1", hash)

	assert.NoError(t, auth.ComparePasswordAndHash("sekret#1", hash))
}

func TestHashPassword_Empty(t *testing.T) {
	_, err := auth.HashPassword("")
	assert.Equal(t, auth.ErrNoEmptyString, err)
}

func TestComparePasswordAndHash_Mismatch(t *testing.T) {
	hash, err := auth.HashPassword("sekret#1")
	require.NoError(t, err)

	err = auth.ComparePasswordAndHash("wrong", hash)
	assert.Equal(t, auth.ErrMismatchedHashAndPassword, err)
}

func TestComparePasswordAndHash_BadHash(t *testing.T) {
	err := auth.ComparePasswordAndHash("sekret#1", "not-a-bcrypt-hash")
	require.Error(t, err)
	assert.NotEqual(t, auth.ErrMismatchedHashAndPassword, err)
}

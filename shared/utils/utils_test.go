package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	first, err := HashPassword("p1")
	require.NoError(t, err)
	second, err := HashPassword("p1")
	require.NoError(t, err)

	assert.NotEqual(t, "p1", first)
	assert.NotEqual(t, first, second, "hashes of the same password should be salted")
	assert.True(t, CheckPassword("p1", first))
	assert.True(t, CheckPassword("p1", second))
	assert.False(t, CheckPassword("p2", first))

	cost, err := bcrypt.Cost([]byte(first))
	require.NoError(t, err)
	assert.Equal(t, PasswordCost, cost)
}

func TestCheckPasswordRejectsGarbageHash(t *testing.T) {
	assert.False(t, CheckPassword("p1", "not-a-hash"))
}

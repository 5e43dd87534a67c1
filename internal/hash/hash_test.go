package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	t.Parallel()

	h, err := HashPassword("123456qW!")
	require.NoError(t, err)
	require.NotEmpty(t, h)
	assert.NotEqual(t, "123456qW!", h)

	// salted: hashing twice never produces the same value
	h2, err := HashPassword("123456qW!")
	require.NoError(t, err)
	assert.NotEqual(t, h, h2)
}

func TestCheckPassword(t *testing.T) {
	t.Parallel()

	h, err := HashPassword("123456qW!")
	require.NoError(t, err)

	assert.True(t, CheckPassword(h, "123456qW!"))
	assert.False(t, CheckPassword(h, "wrong"))
	assert.False(t, CheckPassword("not-a-bcrypt-hash", "123456qW!"))
}

package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestNewBcryptHasher_Cost(t *testing.T) {
	t.Parallel()

	assert.Equal(t, bcrypt.MinCost, NewBcryptHasher(bcrypt.MinCost).Cost())
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(0).Cost())
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(bcrypt.MaxCost+1).Cost())
}

func TestBcryptHasher_HashVerify(t *testing.T) {
	t.Parallel()

	h := NewBcryptHasher(bcrypt.MinCost)

	h1, err := h.Hash("pw123")
	require.NoError(t, err)
	h2, err := h.Hash("pw123")
	require.NoError(t, err)

	assert.NotEqual(t, "pw123", h1)
	assert.NotEqual(t, h1, h2, "salt must differ per call")

	assert.True(t, h.Verify("pw123", h1))
	assert.True(t, h.Verify("pw123", h2))
	assert.False(t, h.Verify("wrong", h1))
}

func TestBcryptHasher_VerifyMalformed(t *testing.T) {
	t.Parallel()

	h := NewBcryptHasher(bcrypt.MinCost)
	assert.NotPanics(t, func() {
		assert.False(t, h.Verify("pw", ""))
		assert.False(t, h.Verify("pw", "not-a-bcrypt-hash"))
	})
}

package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)

	assert.True(t, CheckPassword(hash, "s3cret-pass"))
	assert.False(t, CheckPassword(hash, "wrong"))
	assert.False(t, CheckPassword("not-a-hash", "s3cret-pass"))
}

func TestHashVerificationCode(t *testing.T) {
	digest := HashVerificationCode("482913")

	assert.Len(t, digest, 64)
	assert.Equal(t, digest, HashVerificationCode("482913"))
	assert.NotEqual(t, digest, HashVerificationCode("482914"))
}

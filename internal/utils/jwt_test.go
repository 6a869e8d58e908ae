package utils

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	userID := uuid.New()

	token, err := GenerateToken("test-secret", userID, "supplier", time.Hour)
	require.NoError(t, err)

	parsedID, role, err := ParseToken("test-secret", token)
	require.NoError(t, err)
	assert.Equal(t, userID, parsedID)
	assert.Equal(t, "supplier", role)
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken("test-secret", uuid.New(), "buyer", time.Hour)
	require.NoError(t, err)

	_, _, err = ParseToken("other-secret", token)
	assert.Error(t, err)
}

func TestParseTokenExpired(t *testing.T) {
	token, err := GenerateToken("test-secret", uuid.New(), "buyer", -time.Minute)
	require.NoError(t, err)

	_, _, err = ParseToken("test-secret", token)
	assert.Error(t, err)
}

func TestParseTokenGarbage(t *testing.T) {
	_, _, err := ParseToken("test-secret", "not.a.token")
	assert.Error(t, err)
}

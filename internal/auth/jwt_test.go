package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManagerGenerateAndVerify(t *testing.T) {
	m := NewJWTManager("test-secret", "pdfvault-test", time.Minute)

	token, err := m.GenerateAccessToken("user-123", "alice@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := m.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.False(t, claims.IsAdmin)
	assert.Equal(t, "pdfvault-test", claims.Issuer)
}

func TestJWTManagerAdminToken(t *testing.T) {
	m := NewJWTManager("test-secret", "", 0)

	token, err := m.GenerateAdminToken("admin-1", "admin@example.com")
	require.NoError(t, err)

	claims, err := m.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.True(t, claims.IsAdmin)
	assert.Equal(t, "pdfvault", claims.Issuer)
}

func TestJWTManagerRejectsWrongSecret(t *testing.T) {
	m := NewJWTManager("secret-a", "pdfvault", time.Minute)
	other := NewJWTManager("secret-b", "pdfvault", time.Minute)

	token, err := m.GenerateAccessToken("user-123", "alice@example.com")
	require.NoError(t, err)

	_, err = other.VerifyAccessToken(token)
	assert.Error(t, err)
}

func TestJWTManagerRejectsExpiredToken(t *testing.T) {
	m := NewJWTManager("test-secret", "pdfvault", -time.Minute)

	token, err := m.GenerateAccessToken("user-123", "alice@example.com")
	require.NoError(t, err)

	_, err = m.VerifyAccessToken(token)
	assert.Error(t, err)
}

func TestExtractTokenFromHeader(t *testing.T) {
	token, err := ExtractTokenFromHeader("Bearer abc.def.ghi")
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	_, err = ExtractTokenFromHeader("")
	assert.Error(t, err)

	_, err = ExtractTokenFromHeader("Basic abc")
	assert.Error(t, err)
}

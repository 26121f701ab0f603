package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	svc := New("secret", time.Hour)

	token, err := svc.GenerateToken(42, "user")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "user", claims.Role)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	token, err := New("one", time.Hour).GenerateToken(1, "user")
	require.NoError(t, err)

	_, err = New("two", time.Hour).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_Expired(t *testing.T) {
	svc := New("secret", -time.Minute)
	token, err := svc.GenerateToken(1, "user")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestObjectToken_RoundTrip(t *testing.T) {
	svc := New("secret", time.Hour)

	token, expiresAt, err := svc.GenerateObjectToken("verification-documents", "7/verification/file.pdf", 5*time.Minute)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), expiresAt, 5*time.Second)

	claims, err := svc.ValidateObjectToken(token)
	require.NoError(t, err)
	assert.Equal(t, "verification-documents", claims.Bucket)
	assert.Equal(t, "7/verification/file.pdf", claims.Path)
}

func TestTokensAreNotInterchangeable(t *testing.T) {
	svc := New("secret", time.Hour)

	objectToken, _, err := svc.GenerateObjectToken("documents", "1/a.pdf", time.Minute)
	require.NoError(t, err)
	_, err = svc.ValidateToken(objectToken)
	assert.ErrorIs(t, err, ErrInvalidClaims)

	accessToken, err := svc.GenerateToken(1, "user")
	require.NoError(t, err)
	_, err = svc.ValidateObjectToken(accessToken)
	assert.ErrorIs(t, err, ErrInvalidClaims)
}

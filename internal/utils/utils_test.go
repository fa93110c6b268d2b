package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func TestAccessTokenRoundTrip(t *testing.T) {
	now := time.Date(2030, 5, 1, 10, 0, 0, 0, time.UTC)
	tok, err := NewAccessToken(secret, 42, "admin", time.Hour, now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), tok.Exp)

	claims, err := ParseAccessToken(secret, tok.Token, now.Add(30*time.Minute))
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)
	assert.Equal(t, "admin", claims.Role)
	assert.NotEmpty(t, claims.ID)
}

func TestAccessTokenExpiry(t *testing.T) {
	now := time.Date(2030, 5, 1, 10, 0, 0, 0, time.UTC)
	tok, err := NewAccessToken(secret, 1, "user", 15*time.Minute, now)
	require.NoError(t, err)

	_, err = ParseAccessToken(secret, tok.Token, now.Add(16*time.Minute))
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestAccessTokenWithoutExpiry(t *testing.T) {
	now := time.Date(2030, 5, 1, 10, 0, 0, 0, time.UTC)
	tok, err := NewAccessToken(secret, 1, "user", 0, now)
	require.NoError(t, err)
	assert.True(t, tok.Exp.IsZero())

	_, err = ParseAccessToken(secret, tok.Token, now.AddDate(10, 0, 0))
	assert.NoError(t, err)
}

func TestAccessTokenRejectsOtherSecret(t *testing.T) {
	now := time.Now()
	tok, err := NewAccessToken(secret, 1, "user", time.Hour, now)
	require.NoError(t, err)

	_, err = ParseAccessToken([]byte("other"), tok.Token, now)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestAccessTokenRejectsNoneAlgorithm(t *testing.T) {
	claims := Claims{Role: "admin", RegisteredClaims: jwt.RegisteredClaims{Subject: "1"}}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ParseAccessToken(secret, raw, time.Now())
	assert.Error(t, err)
}

func TestAccessTokenRejectsMissingRole(t *testing.T) {
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "1"}}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)

	_, err = ParseAccessToken(secret, raw, time.Now())
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2", 1)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "hunter2"))
	assert.False(t, VerifyPassword(hash, "hunter3"))
}

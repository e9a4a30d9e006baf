package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test_secret_key_1234567890"

func TestJWTMaker_GenerateAndParseToken(t *testing.T) {
	tokenTTL := 15 * time.Minute
	maker := NewJWTMaker(testSecret, tokenTTL)

	tests := []struct {
		name   string
		userID string
		role   string
	}{
		{name: "admin user", userID: "8f8e2b1e-3f5c-4a57-9d0f-0c2f0f7c8a11", role: "admin"},
		{name: "regular user", userID: "0b7c6a52-1d6e-4c0e-8d7f-2b6b8a7b5c33", role: "user"},
		{name: "mixed case role kept as is", userID: "u-1", role: "Admin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := maker.GenerateToken(tt.userID, tt.role)
			require.NoError(t, err)
			assert.NotEmpty(t, token)

			claims, err := maker.ParseToken(token)
			require.NoError(t, err)

			assert.Equal(t, tt.userID, claims.UserID)
			assert.Equal(t, tt.userID, claims.Subject)
			assert.Equal(t, tt.role, claims.Role)
			assert.WithinDuration(t, time.Now(), claims.IssuedAt.Time, 2*time.Second)
			assert.WithinDuration(t, time.Now().Add(tokenTTL), claims.ExpiresAt.Time, 2*time.Second)
		})
	}
}

func TestJWTMaker_ParseToken_InvalidTokens(t *testing.T) {
	maker := NewJWTMaker(testSecret, 15*time.Minute)

	validToken, err := maker.GenerateToken("u-1", "user")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty token", token: ""},
		{name: "malformed token", token: "invalid.token.here"},
		{name: "expired token", token: createExpiredToken(t)},
		{name: "wrong secret key", token: createTokenWithWrongSecret(t)},
		{name: "tampered token", token: validToken + "tampered"},
		{name: "alg none", token: createUnsignedToken(t)},
		{name: "without user id", token: createTokenWithoutUserID(t)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := maker.ParseToken(tt.token)
			require.Error(t, err)
			assert.Nil(t, claims)
			assert.Contains(t, err.Error(), "jwt.ParseToken")
		})
	}
}

func TestJWTMaker_ExpiredError(t *testing.T) {
	maker := NewJWTMaker(testSecret, time.Minute)

	_, err := maker.ParseToken(createExpiredToken(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func createExpiredToken(t *testing.T) string {
	maker := NewJWTMaker(testSecret, -time.Hour)
	token, err := maker.GenerateToken("u-1", "user")
	require.NoError(t, err)
	return token
}

func createTokenWithWrongSecret(t *testing.T) string {
	wrongMaker := NewJWTMaker("wrong_secret_key", 15*time.Minute)
	token, err := wrongMaker.GenerateToken("u-1", "user")
	require.NoError(t, err)
	return token
}

func createUnsignedToken(t *testing.T) string {
	claims := CustomClaims{
		UserID: "u-1",
		Role:   "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	return token
}

func createTokenWithoutUserID(t *testing.T) string {
	claims := CustomClaims{
		Role: "user",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

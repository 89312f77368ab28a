package jwt

import (
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test_secret_key_1234567890"

func TestMaker_GenerateAndParse(t *testing.T) {
	tokenTTL := 15 * time.Minute
	maker := NewMaker(testSecret, tokenTTL)

	tests := []struct {
		name   string
		userID string
		role   string
	}{
		{name: "admin", userID: "8f14e45f-ceea-467f-a8a2-8a2b1bfc0d0e", role: "admin"},
		{name: "student", userID: "c9f0f895-fb98-4b91-9a2e-7f1e0b6b0a11", role: "student"},
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

func TestMaker_ParseToken_Invalid(t *testing.T) {
	maker := NewMaker(testSecret, 15*time.Minute)

	valid, err := maker.GenerateToken("user-1", "student")
	require.NoError(t, err)

	expired, err := NewMaker(testSecret, -time.Hour).GenerateToken("user-1", "student")
	require.NoError(t, err)

	foreign, err := NewMaker("wrong_secret_key", 15*time.Minute).GenerateToken("user-1", "student")
	require.NoError(t, err)

	noUser, err := maker.GenerateToken("", "student")
	require.NoError(t, err)

	none, err := gojwt.NewWithClaims(gojwt.SigningMethodNone, Claims{UserID: "user-1"}).
		SignedString(gojwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty token", token: ""},
		{name: "malformed token", token: "invalid.token.here"},
		{name: "expired token", token: expired},
		{name: "wrong secret key", token: foreign},
		{name: "tampered token", token: valid + "tampered"},
		{name: "missing user id", token: noUser},
		{name: "unsigned token", token: none},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := maker.ParseToken(tt.token)
			assert.Error(t, err)
			assert.Nil(t, claims)
		})
	}
}

func TestMaker_ExpiredTokenError(t *testing.T) {
	token, err := NewMaker(testSecret, -time.Minute).GenerateToken("user-1", "student")
	require.NoError(t, err)

	_, err = NewMaker(testSecret, time.Minute).ParseToken(token)
	require.Error(t, err)
	assert.ErrorIs(t, err, gojwt.ErrTokenExpired)
}

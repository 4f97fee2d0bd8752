package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig(testSecret))

	token, expiresAt, err := svc.GenerateAccessToken(Principal{
		UserID: "u-1",
		Email:  "clerk@example.com",
		Roles:  []string{"store_manager"},
	})
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	user, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", user.UserID)
	assert.Equal(t, "clerk@example.com", user.Email)
	assert.Equal(t, []string{"store_manager"}, user.Roles)
	assert.False(t, user.IsAdmin)
}

func TestJWTService_Rejects(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig(testSecret))

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTService(DefaultJWTConfig("another-secret-another-secret-xx"))
		token, _, err := other.GenerateAccessToken(Principal{UserID: "u-1"})
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		claims := Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "erpcore",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			},
			UserID: "u-1",
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewJWTService(JWTConfig{Secret: testSecret, Issuer: "someone-else"})
		token, _, err := other.GenerateAccessToken(Principal{UserID: "u-1"})
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-token")
		assert.Error(t, err)
	})

	t.Run("empty user", func(t *testing.T) {
		_, _, err := svc.GenerateAccessToken(Principal{})
		assert.Error(t, err)
	})
}

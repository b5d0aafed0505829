package controllers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	secret := "test-secret"

	t.Run("signed token verifies", func(t *testing.T) {
		token, err := signHS256JWT(secret, map[string]any{
			"sub":   int64(42),
			"email": "a@x.com",
			"iat":   time.Now().Unix(),
			"exp":   time.Now().Add(time.Hour).Unix(),
		})
		require.NoError(t, err)

		claims, ok := parseAndVerifyJWT(token, secret)
		require.True(t, ok)
		assert.Equal(t, int64(42), claims.Sub)
		assert.Equal(t, "a@x.com", claims.Email)
	})

	t.Run("wrong secret fails verification", func(t *testing.T) {
		token, err := signHS256JWT(secret, map[string]any{"sub": int64(1)})
		require.NoError(t, err)
		_, ok := parseAndVerifyJWT(token, "another-secret")
		assert.False(t, ok)
	})

	t.Run("tampered payload fails verification", func(t *testing.T) {
		token, err := signHS256JWT(secret, map[string]any{"sub": int64(1)})
		require.NoError(t, err)
		tampered := token[:len(token)-2] + "xx"
		_, ok := parseAndVerifyJWT(tampered, secret)
		assert.False(t, ok)
	})

	t.Run("missing sub is rejected", func(t *testing.T) {
		token, err := signHS256JWT(secret, map[string]any{"email": "a@x.com"})
		require.NoError(t, err)
		_, ok := parseAndVerifyJWT(token, secret)
		assert.False(t, ok)
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		_, ok := parseAndVerifyJWT("not.a.token", secret)
		assert.False(t, ok)
		_, ok = parseAndVerifyJWT("nodots", secret)
		assert.False(t, ok)
	})
}

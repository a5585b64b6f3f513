package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostpanel/backend/internal/infrastructure/config"
)

func newTestService(expiration time.Duration) *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:     "test-secret-key-at-least-32-chars-long",
		Issuer:     "hostpanel-backend",
		Expiration: expiration,
	})
}

func TestJWTService(t *testing.T) {
	t.Run("round trip preserves subject and scopes", func(t *testing.T) {
		svc := newTestService(time.Hour)

		token, err := svc.GenerateToken("provisioner", []string{ScopeBillingHooks})
		require.NoError(t, err)

		claims, err := svc.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, "provisioner", claims.Subject)
		assert.True(t, claims.HasScope(ScopeBillingHooks))
		assert.False(t, claims.HasScope(ScopeBillingAdmin))
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		svc := newTestService(-time.Minute)

		token, err := svc.GenerateToken("ops", []string{ScopeBillingAdmin})
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("token signed with a different secret is rejected", func(t *testing.T) {
		svc := newTestService(time.Hour)
		other := NewJWTService(config.JWTConfig{
			Secret:     "another-secret-key-also-32-chars-xx",
			Issuer:     "hostpanel-backend",
			Expiration: time.Hour,
		})

		token, err := other.GenerateToken("ops", nil)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer is rejected", func(t *testing.T) {
		svc := newTestService(time.Hour)
		other := NewJWTService(config.JWTConfig{
			Secret:     "test-secret-key-at-least-32-chars-long",
			Issuer:     "someone-else",
			Expiration: time.Hour,
		})

		token, err := other.GenerateToken("ops", nil)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		svc := newTestService(time.Hour)

		_, err := svc.ValidateToken("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

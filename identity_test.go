package replikit

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSigningKey = []byte("replikit-test-secret")

func signTestToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSigningKey)
	require.NoError(t, err)
	return token
}

func testKeyFunc(*jwt.Token) (any, error) {
	return testSigningKey, nil
}

// TestIdentityFromToken tests building an identity from a JWT.
func TestIdentityFromToken(t *testing.T) {
	t.Run("Subject becomes the user id", func(t *testing.T) {
		token := signTestToken(t, jwt.MapClaims{"sub": "u1", "org": "acme"})

		identity, err := IdentityFromToken(token, testKeyFunc)
		require.NoError(t, err)
		assert.Equal(t, "u1", identity.UserID)
		assert.True(t, identity.IsAuthenticated())
		assert.Equal(t, "acme", identity.Claims["org"])
	})

	t.Run("Missing subject yields an anonymous identity", func(t *testing.T) {
		token := signTestToken(t, jwt.MapClaims{"org": "acme"})

		identity, err := IdentityFromToken(token, testKeyFunc)
		require.NoError(t, err)
		assert.False(t, identity.IsAuthenticated())
	})

	t.Run("Bad signature", func(t *testing.T) {
		token := signTestToken(t, jwt.MapClaims{"sub": "u1"})

		_, err := IdentityFromToken(token, func(*jwt.Token) (any, error) {
			return []byte("other-secret"), nil
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Garbage token", func(t *testing.T) {
		_, err := IdentityFromToken("not-a-token", testKeyFunc)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

// TestAnonymousIdentity tests the anonymous identity helper.
func TestAnonymousIdentity(t *testing.T) {
	assert.False(t, AnonymousIdentity().IsAuthenticated())
}

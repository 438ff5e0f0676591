package auth

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateKey(t *testing.T) {
	kg := NewKeyGenerator()

	t.Run("generates decodable base64url key", func(t *testing.T) {
		key, err := kg.GenerateKey()
		require.NoError(t, err)
		require.NotEmpty(t, key)

		raw, err := base64.RawURLEncoding.DecodeString(key)
		require.NoError(t, err)
		assert.Len(t, raw, KeyLength)
	})

	t.Run("generates unique keys", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 100; i++ {
			key, err := kg.GenerateKey()
			require.NoError(t, err)
			assert.False(t, seen[key], "duplicate key generated")
			seen[key] = true
		}
	})
}

func TestPasswordHashing(t *testing.T) {
	t.Run("hash verifies against original password", func(t *testing.T) {
		digest, err := HashPassword("correct horse battery staple")
		require.NoError(t, err)
		assert.NotEqual(t, "correct horse battery staple", digest)
		assert.True(t, VerifyPassword(digest, "correct horse battery staple"))
	})

	t.Run("hash rejects wrong password", func(t *testing.T) {
		digest, err := HashPassword("hunter2")
		require.NoError(t, err)
		assert.False(t, VerifyPassword(digest, "hunter3"))
	})

	t.Run("same password hashes differently", func(t *testing.T) {
		first, err := HashPassword("hunter2")
		require.NoError(t, err)
		second, err := HashPassword("hunter2")
		require.NoError(t, err)
		assert.NotEqual(t, first, second)
	})

	t.Run("garbage digest never verifies", func(t *testing.T) {
		assert.False(t, VerifyPassword("not-a-bcrypt-digest", "anything"))
	})
}

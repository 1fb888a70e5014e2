package repositories

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBadgerKVRepository(t *testing.T) {
	repo := setupTestKV(t)

	t.Run("get missing key", func(t *testing.T) {
		_, err := repo.Get(TokenKey)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("set and get", func(t *testing.T) {
		require.NoError(t, repo.Set(TokenKey, []byte("abc")))
		v, err := repo.Get(TokenKey)
		require.NoError(t, err)
		assert.Equal(t, []byte("abc"), v)
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, repo.Set(TokenKey, []byte("def")))
		v, err := repo.Get(TokenKey)
		require.NoError(t, err)
		assert.Equal(t, []byte("def"), v)
	})

	t.Run("keys", func(t *testing.T) {
		require.NoError(t, repo.Set(RefreshTokenKey, []byte("r")))
		keys, err := repo.Keys()
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{TokenKey, RefreshTokenKey}, keys)
	})

	t.Run("delete several including missing", func(t *testing.T) {
		require.NoError(t, repo.Delete(TokenKey, RefreshTokenKey, UserKey))
		keys, err := repo.Keys()
		require.NoError(t, err)
		assert.Empty(t, keys)
	})
}

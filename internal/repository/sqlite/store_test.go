package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	ctx := context.Background()

	t.Run("SetGetRemove", func(t *testing.T) {
		store, err := NewStore(ctx, filepath.Join(t.TempDir(), "slots.db"))
		require.NoError(t, err)
		defer func() { _ = store.Close(ctx) }()

		_, ok, err := store.Get(ctx, "userEmail")
		require.NoError(t, err)
		require.False(t, ok)

		require.NoError(t, store.Set(ctx, "userEmail", "a@x"))
		require.NoError(t, store.Set(ctx, "userEmail", "b@x"))

		value, ok, err := store.Get(ctx, "userEmail")
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "b@x", value)

		require.NoError(t, store.Remove(ctx, "userEmail"))
		require.NoError(t, store.Remove(ctx, "userEmail"))

		_, ok, err = store.Get(ctx, "userEmail")
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("SurvivesReopen", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "slots.db")

		first, err := NewStore(ctx, path)
		require.NoError(t, err)
		require.NoError(t, first.Set(ctx, "products", `[{"id":1,"name":"Tomatoes"}]`))
		require.NoError(t, first.Close(ctx))

		second, err := NewStore(ctx, path)
		require.NoError(t, err)
		defer func() { _ = second.Close(ctx) }()

		value, ok, err := second.Get(ctx, "products")
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, `[{"id":1,"name":"Tomatoes"}]`, value)
		require.Equal(t, path, second.Path())
	})
}

package store_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanyuechuixue/rbasis/store"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()

	require.NoError(t, s.Put(ctx, "a", []byte("one")))
	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), got)

	// Mutating the returned slice must not affect the stored blob.
	got[0] = 'X'
	again, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), again)

	require.NoError(t, s.Put(ctx, "a", []byte("two")))
	got, err = s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), got)

	_, err = s.Get(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestLocalStore(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s := store.NewLocalStore(root)

	require.NoError(t, s.Put(ctx, "bases/run1.zst", []byte("payload")))
	got, err := s.Get(ctx, "bases/run1.zst")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)

	// Overwrite replaces content atomically.
	require.NoError(t, s.Put(ctx, "bases/run1.zst", []byte("payload2")))
	got, err = s.Get(ctx, "bases/run1.zst")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload2"), got)

	_, err = s.Get(ctx, "bases/run2.zst")
	require.ErrorIs(t, err, store.ErrNotFound)

	// No temporary files are left behind.
	entries, err := os.ReadDir(filepath.Join(root, "bases"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

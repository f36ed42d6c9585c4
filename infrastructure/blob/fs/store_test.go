package fs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	pkgerrors "maxnotes/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	return store
}

func TestStore_SaveAndLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	ref, err := store.Save(ctx, []byte("jpeg-bytes"), "note-1")
	require.NoError(t, err)
	assert.Equal(t, "note-1", ref)

	data, err := store.Load(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), data)
}

func TestStore_SaveReplacesExistingBlob(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Save(ctx, []byte("first"), "note-1")
	require.NoError(t, err)
	_, err = store.Save(ctx, []byte("second"), "note-1")
	require.NoError(t, err)

	data, err := store.Load(ctx, "note-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), data)
}

func TestStore_SaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, zap.NewNop())
	require.NoError(t, err)

	_, err = store.Save(context.Background(), []byte("jpeg-bytes"), "note-1")
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "note-1.jpg", entries[0].Name())
}

func TestStore_LoadMissingBlobIsNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Load(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestStore_DeleteIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Save(ctx, []byte("jpeg-bytes"), "note-1")
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "note-1"))
	require.NoError(t, store.Delete(ctx, "note-1"))

	_, err = store.Load(ctx, "note-1")
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestStore_RejectsKeysThatEscapeTheDirectory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, key := range []string{"", "../escape", "a/b", `a\b`} {
		_, err := store.Save(ctx, []byte("x"), key)
		assert.True(t, pkgerrors.IsValidation(err), "save key %q", key)

		_, err = store.Load(ctx, key)
		assert.True(t, pkgerrors.IsValidation(err), "load key %q", key)

		assert.True(t, pkgerrors.IsValidation(store.Delete(ctx, key)), "delete key %q", key)
	}
}

func TestStore_HonorsCancelledContext(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Save(ctx, []byte("x"), "note-1")
	assert.True(t, pkgerrors.IsCancelled(err))

	_, err = store.Load(ctx, "note-1")
	assert.True(t, pkgerrors.IsCancelled(err))

	assert.True(t, pkgerrors.IsCancelled(store.Delete(ctx, "note-1")))
}

func TestNewStore_CreatesNestedDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "attachments")

	store, err := NewStore(dir, zap.NewNop())
	require.NoError(t, err)

	_, err = store.Save(context.Background(), []byte("x"), "note-1")
	require.NoError(t, err)
}

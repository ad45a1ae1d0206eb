package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer store.Close()

	// Missing value
	_, ok, err := store.Get(ctx, "group-1", "deskbridge:tid")
	require.NoError(t, err)
	assert.False(t, ok)

	// Set then Get
	require.NoError(t, store.Set(ctx, "group-1", "deskbridge:tid", "4178"))
	val, ok, err := store.Get(ctx, "group-1", "deskbridge:tid")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "4178", val)

	// Scopes are isolated
	_, ok, err = store.Get(ctx, "group-2", "deskbridge:tid")
	require.NoError(t, err)
	assert.False(t, ok)

	// Upsert replaces
	require.NoError(t, store.Set(ctx, "group-1", "deskbridge:tid", "5289"))
	val, _, err = store.Get(ctx, "group-1", "deskbridge:tid")
	require.NoError(t, err)
	assert.Equal(t, "5289", val)
}

func TestSQLiteStore_Delete(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Set(ctx, "group-1", "deskbridge:tid", "4178"))
	require.NoError(t, store.Set(ctx, "group-2", "deskbridge:tid", "5289"))

	require.NoError(t, store.Delete(ctx, "group-1", "deskbridge:tid"))
	_, ok, err := store.Get(ctx, "group-1", "deskbridge:tid")
	require.NoError(t, err)
	assert.False(t, ok)

	// Other scopes untouched
	val, ok, err := store.Get(ctx, "group-2", "deskbridge:tid")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "5289", val)

	// Missing rows are fine
	assert.NoError(t, store.Delete(ctx, "group-1", "deskbridge:tid"))
}

func TestSQLiteStore_Persistence(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "g", "k", "v"))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer reopened.Close()

	val, ok, err := reopened.Get(ctx, "g", "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", val)
}

func TestSQLiteStore_Errors(t *testing.T) {
	t.Run("Invalid Path", func(t *testing.T) {
		tmpDir := t.TempDir()
		_, err := NewSQLiteStore(tmpDir)
		assert.Error(t, err, "Expected error for directory path")
	})
}

package badgerdb_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/nexia/pkg/adapters/badgerdb"
	"github.com/aretw0/nexia/pkg/core"
)

func sampleNotebook(t *testing.T) *core.Notebook {
	t.Helper()
	nb := core.NewNotebook("Garden", core.WithAcyclicLinks(true))
	root := nb.CreateNote("Root")
	leaf := nb.CreateNote("Leaf")
	require.NoError(t, nb.LinkNotes(root, leaf))
	require.NoError(t, nb.UpdateNote(leaf, func(n *core.Note) {
		n.SetContent("green")
		n.SetPosition(&core.Point2D{X: 1, Y: 2})
	}))
	return nb
}

func assertSame(t *testing.T, want, got *core.Notebook) {
	t.Helper()
	assert.Equal(t, want.Name, got.Name)
	assert.Equal(t, want.Acyclic(), got.Acyclic())
	require.Equal(t, want.Len(), got.Len())
	for n := range want.AllNotes() {
		g, ok := got.GetNote(n.ID)
		require.True(t, ok)
		assert.True(t, n.Equal(g), "note %s differs", n.ID)
		assert.Equal(t, want.Backlinks(n.ID), got.Backlinks(n.ID))
	}
	require.NoError(t, got.CheckIntegrity())
}

func TestStorage_OnDisk(t *testing.T) {
	ctx := context.Background()
	storage := badgerdb.NewStorage(badgerdb.Options{SyncWrites: true})
	dest := filepath.Join(t.TempDir(), "garden.badger")
	nb := sampleNotebook(t)

	require.NoError(t, storage.Save(ctx, nb, dest))
	got, err := storage.Load(ctx, dest)
	require.NoError(t, err)
	assertSame(t, nb, got)

	t.Run("Stale Notes Removed", func(t *testing.T) {
		var victim core.NoteID
		for n := range nb.AllNotes() {
			victim = n.ID
			break
		}
		_, removed := nb.RemoveNote(victim)
		require.True(t, removed)
		require.NoError(t, storage.Save(ctx, nb, dest))

		got, err := storage.Load(ctx, dest)
		require.NoError(t, err)
		assertSame(t, nb, got)
	})
}

func TestStorage_InMemory(t *testing.T) {
	ctx := context.Background()
	storage := badgerdb.NewStorage(badgerdb.Options{InMemory: true})
	t.Cleanup(func() { require.NoError(t, storage.Close()) })

	_, err := storage.Load(ctx, "garden")
	assert.ErrorIs(t, err, core.ErrNotFound)

	nb := sampleNotebook(t)
	require.NoError(t, storage.Save(ctx, nb, "garden"))
	got, err := storage.Load(ctx, "garden")
	require.NoError(t, err)
	assertSame(t, nb, got)

	state := storage.State().(badgerdb.StorageState)
	assert.True(t, state.InMemory)
	assert.Equal(t, 1, state.Saves)
	assert.Equal(t, 1, state.Loads)
	assert.Equal(t, "badger-storage", storage.ComponentType())
}

func TestStorage_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	storage := badgerdb.NewStorage(badgerdb.Options{InMemory: true})

	err := storage.Save(ctx, core.NewNotebook("x"), "x")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStorage_LoadForeignPaths(t *testing.T) {
	ctx := context.Background()
	storage := badgerdb.NewStorage(badgerdb.Options{})

	t.Run("Empty Directory", func(t *testing.T) {
		dir := t.TempDir()
		_, err := storage.Load(ctx, dir)
		assert.ErrorIs(t, err, core.ErrNotFound)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries, "load must not create a database")
	})

	t.Run("Unrelated Directory", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("hello"), 0644))

		_, err := storage.Load(ctx, dir)
		assert.ErrorIs(t, err, core.ErrFormat)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("Regular File", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "garden.badger")
		require.NoError(t, os.WriteFile(dest, []byte("flat"), 0644))

		_, err := storage.Load(ctx, dest)
		assert.ErrorIs(t, err, core.ErrFormat)
	})
}

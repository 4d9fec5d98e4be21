package sqlite_test

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/nexia/pkg/adapters/sqlite"
	"github.com/aretw0/nexia/pkg/core"
)

func sampleNotebook(t *testing.T) *core.Notebook {
	t.Helper()
	nb := core.NewNotebook("Lab")
	a := nb.CreateNote("Hypothesis")
	b := nb.CreateNote("Result")
	require.NoError(t, nb.LinkNotes(a, b))
	proto := core.NewNoteID()
	require.NoError(t, nb.UpdateNote(b, func(n *core.Note) {
		n.SetContent("it worked")
		n.SetPrototype(&proto)
		n.SetAttribute("runs", core.Int(3))
	}))
	return nb
}

func TestStorage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	storage := sqlite.NewStorage(sqlite.Options{})
	dest := filepath.Join(t.TempDir(), "lab.db")
	nb := sampleNotebook(t)

	require.NoError(t, storage.Save(ctx, nb, dest))
	got, err := storage.Load(ctx, dest)
	require.NoError(t, err)

	assert.Equal(t, nb.Name, got.Name)
	assert.True(t, nb.ModifiedAt.Equal(got.ModifiedAt))
	require.Equal(t, nb.Len(), got.Len())
	for n := range nb.AllNotes() {
		g, ok := got.GetNote(n.ID)
		require.True(t, ok)
		assert.True(t, n.Equal(g), "note %s differs", n.ID)
		assert.Equal(t, nb.Backlinks(n.ID), got.Backlinks(n.ID))
	}
	require.NoError(t, got.CheckIntegrity())

	prototypes := 0
	for n := range got.AllNotes() {
		if n.Prototype != nil {
			prototypes++
			assert.Equal(t, "Result", n.Title)
		}
	}
	assert.Equal(t, 1, prototypes)

	state := storage.State().(sqlite.StorageState)
	assert.Equal(t, 1, state.Saves)
	assert.Equal(t, 1, state.Loads)
	assert.NotNil(t, state.LastSave)
}

func TestStorage_SaveReplacesNotes(t *testing.T) {
	ctx := context.Background()
	storage := sqlite.NewStorage(sqlite.Options{})
	dest := filepath.Join(t.TempDir(), "lab.db")
	nb := sampleNotebook(t)
	require.NoError(t, storage.Save(ctx, nb, dest))

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
	assert.Equal(t, 1, got.Len())
	assert.False(t, got.Contains(victim))
}

func TestStorage_Errors(t *testing.T) {
	ctx := context.Background()
	storage := sqlite.NewStorage(sqlite.Options{})

	t.Run("Missing File", func(t *testing.T) {
		_, err := storage.Load(ctx, filepath.Join(t.TempDir(), "none.db"))
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("Missing Header", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "blank.db")
		db, err := sql.Open("sqlite3", "file:"+dest)
		require.NoError(t, err)
		_, err = db.Exec("CREATE TABLE unrelated (x INTEGER)")
		require.NoError(t, err)
		require.NoError(t, db.Close())

		_, err = storage.Load(ctx, dest)
		assert.ErrorIs(t, err, core.ErrFormat)
	})

	t.Run("Garbage Content", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "garbage.db")
		garbage := []byte("definitely not a sqlite database, just some plain text\n")
		require.NoError(t, os.WriteFile(dest, garbage, 0644))

		_, err := storage.Load(ctx, dest)
		assert.ErrorIs(t, err, core.ErrFormat)
		assert.NotErrorIs(t, err, core.ErrIO)

		after, err := os.ReadFile(dest)
		require.NoError(t, err)
		assert.Equal(t, garbage, after, "load must not write to the file")
	})

	t.Run("Empty File", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "empty.db")
		require.NoError(t, os.WriteFile(dest, nil, 0644))

		_, err := storage.Load(ctx, dest)
		assert.ErrorIs(t, err, core.ErrFormat)

		info, err := os.Stat(dest)
		require.NoError(t, err)
		assert.Zero(t, info.Size())
	})
}

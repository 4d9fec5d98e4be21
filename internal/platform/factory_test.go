package platform_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/nexia/internal/platform"
	"github.com/aretw0/nexia/pkg/core"
	"github.com/aretw0/nexia/pkg/git"
)

func TestNew_AutoInit(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "deep", "journal.nexia.json")

	svc, err := platform.New(path, platform.WithAutoInit(true))
	require.NoError(t, err)
	assert.Equal(t, path, svc.Path())
	assert.Equal(t, "journal", svc.Info(ctx).Name)
	assert.FileExists(t, path)

	a, err := svc.CreateNote(ctx, "Alpha")
	require.NoError(t, err)
	b, err := svc.CreateNote(ctx, "Beta")
	require.NoError(t, err)
	require.NoError(t, svc.LinkNotes(ctx, a.ID.String(), b.ID.String()))
	require.NoError(t, svc.Save(ctx, ""))

	reopened, err := platform.New(path, platform.WithMustExist(true))
	require.NoError(t, err)
	back, err := reopened.Backlinks(ctx, b.ID.String())
	require.NoError(t, err)
	require.Len(t, back, 1)
	assert.Equal(t, a.ID, back[0].ID)
}

func TestNew_Options(t *testing.T) {
	ctx := context.Background()

	t.Run("Must Exist", func(t *testing.T) {
		_, err := platform.New(filepath.Join(t.TempDir(), "missing.nexia.json"), platform.WithMustExist(true))
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("Lazy Create", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "lazy.nexia.yaml")
		svc, err := platform.New(path, platform.WithName("Lazy"))
		require.NoError(t, err)
		assert.NoFileExists(t, path)
		assert.Equal(t, "Lazy", svc.Info(ctx).Name)

		require.NoError(t, svc.Save(ctx, ""))
		assert.FileExists(t, path)
	})

	t.Run("Read Only", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ro.nexia.json")
		svc, err := platform.New(path, platform.WithReadOnly(true), platform.WithAutoInit(true))
		require.NoError(t, err)
		assert.NoFileExists(t, path)

		_, err = svc.CreateNote(ctx, "nope")
		assert.ErrorIs(t, err, core.ErrReadOnly)
		assert.ErrorIs(t, svc.Save(ctx, ""), core.ErrReadOnly)
	})

	t.Run("Acyclic", func(t *testing.T) {
		svc, err := platform.New(filepath.Join(t.TempDir(), "dag.nexia.json"), platform.WithAcyclicLinks(true))
		require.NoError(t, err)
		a, _ := svc.CreateNote(ctx, "a")
		b, _ := svc.CreateNote(ctx, "b")
		require.NoError(t, svc.LinkNotes(ctx, a.ID.String(), b.ID.String()))
		assert.ErrorIs(t, svc.LinkNotes(ctx, b.ID.String(), a.ID.String()), core.ErrCircularLink)
	})

	t.Run("Unknown Adapter", func(t *testing.T) {
		_, err := platform.New(filepath.Join(t.TempDir(), "x"), platform.WithAdapter("mongo"))
		assert.Error(t, err)
	})

	t.Run("Empty Path", func(t *testing.T) {
		_, err := platform.New("")
		assert.ErrorIs(t, err, core.ErrNoPath)
	})

	t.Run("Injected Storage", func(t *testing.T) {
		storage := &countingStorage{}
		svc, err := platform.New("anywhere", platform.WithStorage(storage), platform.WithDevSafety(false))
		require.NoError(t, err)
		require.NoError(t, svc.Save(ctx, ""))
		assert.Equal(t, 1, storage.saves)
		assert.Equal(t, 1, storage.loads)
	})
}

func TestNew_Adapters(t *testing.T) {
	ctx := context.Background()
	for _, tc := range []struct{ adapter, file string }{
		{platform.AdapterJSON, "nb.nexia.json"},
		{platform.AdapterYAML, "nb.nexia.yaml"},
		{platform.AdapterSQLite, "nb.db"},
		{platform.AdapterBadger, "nb.badger"},
	} {
		t.Run(tc.adapter, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tc.file)
			svc, err := platform.New(path, platform.WithAdapter(tc.adapter), platform.WithAutoInit(true))
			require.NoError(t, err)

			n, err := svc.CreateNote(ctx, "Persisted")
			require.NoError(t, err)
			_, err = svc.UpdateContent(ctx, n.ID.String(), "via "+tc.adapter)
			require.NoError(t, err)
			require.NoError(t, svc.Save(ctx, ""))

			reopened, err := platform.New(path, platform.WithMustExist(true))
			require.NoError(t, err)
			got, err := reopened.GetNote(ctx, n.ID.String())
			require.NoError(t, err)
			assert.Equal(t, "via "+tc.adapter, got.Content)
		})
	}
}

func TestNew_Versioning(t *testing.T) {
	if !git.IsInstalled() {
		t.Skip("git not installed")
	}
	ctx := context.Background()

	t.Run("Commits Every Save", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "log.nexia.json")
		svc, err := platform.New(path, platform.WithVersioning(true), platform.WithAutoInit(true))
		require.NoError(t, err)

		_, err = svc.CreateNote(ctx, "first")
		require.NoError(t, err)
		require.NoError(t, svc.Save(context.WithValue(ctx, core.ChangeReasonKey, "add first note"), ""))
		_, err = svc.CreateNote(ctx, "second")
		require.NoError(t, err)
		require.NoError(t, svc.Save(ctx, ""))

		// Saving an unchanged notebook does not create an empty commit.
		require.NoError(t, svc.Save(ctx, ""))

		log, err := git.NewClient(dir, nil).Log(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, []string{"update log.nexia.json", "add first note", "create log.nexia.json"}, log)

		state := svc.State().(core.ServiceState)
		assert.Equal(t, "versioned-storage", state.StorageType)
	})

	t.Run("Requires Repository", func(t *testing.T) {
		dir := t.TempDir()
		_, err := platform.New(filepath.Join(dir, "nb.nexia.json"), platform.WithVersioning(true))
		assert.Error(t, err)
	})

	t.Run("Existing Repository", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, git.NewClient(dir, nil).Init(ctx))
		path := filepath.Join(dir, "nb.nexia.json")

		svc, err := platform.New(path, platform.WithVersioning(true))
		require.NoError(t, err)
		require.NoError(t, svc.Save(ctx, ""))

		_, err = os.Stat(filepath.Join(dir, git.LockFile))
		assert.True(t, os.IsNotExist(err), "lock must be released")
	})
}

type countingStorage struct {
	saves, loads int
}

func (c *countingStorage) Save(ctx context.Context, nb *core.Notebook, dest string) error {
	c.saves++
	return nil
}

func (c *countingStorage) Load(ctx context.Context, dest string) (*core.Notebook, error) {
	c.loads++
	return nil, core.NewStorageError("load", dest, core.ErrNotFound, nil)
}

// TestVersionedStorage_WaitsForLock checks that a save blocks while another
// holder keeps the git lock of the notebook directory.
func TestVersionedStorage_WaitsForLock(t *testing.T) {
	if !git.IsInstalled() {
		t.Skip("git not installed")
	}
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "locked.nexia.json")
	svc, err := platform.New(path, platform.WithVersioning(true), platform.WithAutoInit(true))
	require.NoError(t, err)

	unlock, err := git.NewClient(dir, nil).Lock(ctx)
	require.NoError(t, err)
	released := make(chan struct{})
	go func() {
		time.Sleep(200 * time.Millisecond)
		close(released)
		unlock()
	}()

	_, err = svc.CreateNote(ctx, "waits")
	require.NoError(t, err)
	require.NoError(t, svc.Save(ctx, ""))
	select {
	case <-released:
	default:
		t.Fatal("save returned before the lock was released")
	}
}

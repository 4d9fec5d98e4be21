package platform

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/aretw0/introspection"

	"github.com/aretw0/nexia/pkg/core"
	"github.com/aretw0/nexia/pkg/git"
)

// VersionedStorage records every successful save as a git commit in the
// directory holding the destination.
type VersionedStorage struct {
	core.Storage

	logger   *slog.Logger
	autoInit bool
	commits  atomic.Int64
}

// NewVersionedStorage wraps inner. With autoInit the repository is created
// on the first save when missing.
func NewVersionedStorage(inner core.Storage, logger *slog.Logger, autoInit bool) *VersionedStorage {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &VersionedStorage{Storage: inner, logger: logger, autoInit: autoInit}
}

// Save writes through the wrapped storage, then stages and commits dest.
// The commit message comes from core.ChangeReasonKey when set.
func (v *VersionedStorage) Save(ctx context.Context, nb *core.Notebook, dest string) error {
	abs, err := filepath.Abs(dest)
	if err != nil {
		return core.NewStorageError("save", dest, core.ErrIO, err)
	}
	client := git.NewClient(filepath.Dir(abs), v.logger)

	unlock, err := client.Lock(ctx)
	if err != nil {
		return core.NewStorageError("save", dest, core.ErrIO, err)
	}
	defer unlock()

	if err := v.Storage.Save(ctx, nb, dest); err != nil {
		return err
	}
	if err := v.commit(ctx, client, filepath.Base(abs)); err != nil {
		return core.NewStorageError("save", dest, core.ErrIO, fmt.Errorf("failed to commit: %w", err))
	}
	return nil
}

func (v *VersionedStorage) commit(ctx context.Context, client *git.Client, file string) error {
	if !client.IsRepo(ctx) {
		if !v.autoInit {
			return fmt.Errorf("%s is not a git repository", client.WorkDir)
		}
		if err := client.Init(ctx); err != nil {
			return err
		}
		v.logger.Info("initialized git repository", "path", client.WorkDir)
	}

	if err := client.Add(ctx, file); err != nil {
		return err
	}
	staged, err := client.HasStagedChanges(ctx)
	if err != nil {
		return err
	}
	if !staged {
		v.logger.Debug("nothing to commit", "file", file)
		return nil
	}

	msg, _ := ctx.Value(core.ChangeReasonKey).(string)
	if msg == "" {
		msg = "update " + file
	}
	if err := client.Commit(ctx, AppendFooter(msg)); err != nil {
		return err
	}
	v.commits.Add(1)
	v.logger.Debug("notebook committed", "file", file)
	return nil
}

// Watch forwards to the wrapped storage when it is watchable.
func (v *VersionedStorage) Watch(ctx context.Context, dest string) (<-chan core.Event, error) {
	w, ok := v.Storage.(core.Watchable)
	if !ok {
		return nil, core.ErrUnsupported
	}
	return w.Watch(ctx, dest)
}

// VersionedState exposes the wrapped storage state plus commit count.
type VersionedState struct {
	Commits int `json:"commits"`
	Inner   any `json:"inner,omitempty"`
}

// State implements introspection.Introspectable.
func (v *VersionedStorage) State() any {
	st := VersionedState{Commits: int(v.commits.Load())}
	if in, ok := v.Storage.(introspection.Introspectable); ok {
		st.Inner = in.State()
	}
	return st
}

// ComponentType implements introspection.Component.
func (v *VersionedStorage) ComponentType() string {
	return "versioned-storage"
}

var (
	_ core.Storage                 = (*VersionedStorage)(nil)
	_ core.Watchable               = (*VersionedStorage)(nil)
	_ introspection.Introspectable = (*VersionedStorage)(nil)
)

package fs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/nexia/pkg/core"
	"github.com/aretw0/nexia/pkg/schema"
)

const (
	// DefaultExtension selects the serializer for destinations with an unknown extension.
	DefaultExtension = ".json"
	// DefaultDebounce is the window used to coalesce watcher events.
	DefaultDebounce = 50 * time.Millisecond
)

// Config holds the configuration for the file storage.
type Config struct {
	Logger *slog.Logger
	// Serializers by lower-case extension. Defaults to DefaultSerializers.
	Serializers map[string]Serializer
	// DefaultExt is used when the destination extension has no serializer.
	DefaultExt string
	// FileMode of written notebook files. Defaults to 0644.
	FileMode os.FileMode
	// CreateDirs creates missing parent directories on save.
	CreateDirs bool
	// Debounce window for Watch.
	Debounce time.Duration
	// ErrorHandler receives asynchronous watcher errors.
	ErrorHandler func(error)
}

// Storage persists one notebook per file as a JSON or YAML document.
type Storage struct {
	config      Config
	serializers map[string]Serializer

	mu        sync.RWMutex
	saves     int
	loads     int
	lastSave  *time.Time
	ownWrites map[string]time.Time
	watchers  int
}

// NewStorage creates a file storage.
func NewStorage(config Config) *Storage {
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	if config.Serializers == nil {
		config.Serializers = DefaultSerializers()
	}
	if config.DefaultExt == "" {
		config.DefaultExt = DefaultExtension
	}
	if config.FileMode == 0 {
		config.FileMode = 0644
	}
	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounce
	}
	return &Storage{
		config:      config,
		serializers: config.Serializers,
		ownWrites:   make(map[string]time.Time),
	}
}

// Save writes nb to dest atomically.
func (s *Storage) Save(ctx context.Context, nb *core.Notebook, dest string) error {
	if err := ctx.Err(); err != nil {
		return core.NewStorageError("save", dest, core.ErrIO, err)
	}

	ser, err := serializerFor(s.serializers, dest, s.config.DefaultExt)
	if err != nil {
		return core.NewStorageError("save", dest, core.ErrFormat, err)
	}
	data, err := ser.Serialize(schema.FromNotebook(nb))
	if err != nil {
		return core.NewStorageError("save", dest, core.ErrFormat, fmt.Errorf("failed to serialize notebook: %w", err))
	}

	if s.config.CreateDirs {
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return core.NewStorageError("save", dest, core.ErrIO, err)
		}
	}

	abs := absPath(dest)
	s.mu.Lock()
	s.ownWrites[abs] = time.Now()
	s.mu.Unlock()

	if err := writeFileAtomic(dest, data, s.config.FileMode); err != nil {
		return core.NewStorageError("save", dest, core.ErrIO, err)
	}

	s.mu.Lock()
	now := time.Now()
	s.saves++
	s.lastSave = &now
	s.ownWrites[abs] = now
	s.mu.Unlock()

	s.config.Logger.Debug("notebook written", "path", dest, "bytes", len(data))
	return nil
}

// Load reads the notebook stored at dest.
func (s *Storage) Load(ctx context.Context, dest string) (*core.Notebook, error) {
	if err := ctx.Err(); err != nil {
		return nil, core.NewStorageError("load", dest, core.ErrIO, err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, core.NewStorageError("load", dest, core.ErrNotFound, err)
		}
		return nil, core.NewStorageError("load", dest, core.ErrIO, err)
	}

	ser, err := serializerFor(s.serializers, dest, s.config.DefaultExt)
	if err != nil {
		return nil, core.NewStorageError("load", dest, core.ErrFormat, err)
	}
	doc, err := ser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, core.NewStorageError("load", dest, core.ErrFormat, err)
	}
	nb, err := schema.ToNotebook(*doc)
	if err != nil {
		return nil, core.NewStorageError("load", dest, core.ErrFormat, err)
	}

	s.mu.Lock()
	s.loads++
	s.mu.Unlock()

	s.config.Logger.Debug("notebook read", "path", dest, "notes", nb.Len())
	return nb, nil
}

// Watch reports changes to dest made outside this storage. The returned
// channel is closed once ctx is done.
func (s *Storage) Watch(ctx context.Context, dest string) (<-chan core.Event, error) {
	events := make(chan core.Event)
	w := newWatchWorker(s, absPath(dest), events)
	if err := w.Start(ctx); err != nil {
		return nil, err
	}

	lifecycle.Go(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := w.Stop(stopCtx)
		close(events)
		return err
	}, lifecycle.WithErrorHandler(s.reportError))

	return events, nil
}

// ownWrite reports whether an event for path at t is most likely caused by
// a Save of this storage.
func (s *Storage) ownWrite(path string, t time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	written, ok := s.ownWrites[path]
	if !ok {
		return false
	}
	return t.Sub(written) < 2*s.config.Debounce+100*time.Millisecond
}

func (s *Storage) setWatcherActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if active {
		s.watchers++
	} else if s.watchers > 0 {
		s.watchers--
	}
}

func (s *Storage) reportError(err error) {
	if s.config.ErrorHandler != nil {
		s.config.ErrorHandler(err)
		return
	}
	s.config.Logger.Error("watcher error", "error", err)
}

var (
	_ core.Storage   = (*Storage)(nil)
	_ core.Watchable = (*Storage)(nil)
)

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

// Package badgerdb stores notebooks in a BadgerDB directory: one key for the
// notebook header and one key per note.
package badgerdb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aretw0/introspection"
	"github.com/dgraph-io/badger/v4"

	"github.com/aretw0/nexia/pkg/core"
	"github.com/aretw0/nexia/pkg/schema"
)

var (
	metaKey    = []byte("meta")
	notePrefix = []byte("note/")
)

func noteKey(id string) []byte {
	return append(bytes.Clone(notePrefix), id...)
}

// Options configures the badger storage.
type Options struct {
	Logger *slog.Logger
	// SyncWrites makes every commit durable before Save returns.
	SyncWrites bool
	// InMemory keeps data in memory only, keyed by destination; for tests.
	InMemory bool
}

// Storage implements core.Storage on top of BadgerDB. The destination is a
// directory that holds a badger database.
type Storage struct {
	opts Options

	mu       sync.Mutex
	memDBs   map[string]*badger.DB
	saves    int
	loads    int
	lastSave *time.Time
}

// NewStorage creates a badger storage.
func NewStorage(opts Options) *Storage {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Storage{opts: opts, memDBs: make(map[string]*badger.DB)}
}

// manifestFile marks a directory that holds a badger database.
const manifestFile = "MANIFEST"

func (s *Storage) open(dest string, readOnly bool) (*badger.DB, func(), error) {
	if s.opts.InMemory {
		s.mu.Lock()
		defer s.mu.Unlock()
		if db, ok := s.memDBs[dest]; ok {
			return db, func() {}, nil
		}
		db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
		if err != nil {
			return nil, nil, err
		}
		s.memDBs[dest] = db
		return db, func() {}, nil
	}

	badgerOpts := badger.DefaultOptions(dest).
		WithLogger(nil).
		WithSyncWrites(s.opts.SyncWrites).
		WithMemTableSize(16 << 20).
		WithValueLogFileSize(64 << 20).
		WithNumMemtables(2).
		WithReadOnly(readOnly)
	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}
	return db, func() {
		if err := db.Close(); err != nil {
			s.opts.Logger.Warn("failed to close BadgerDB", "path", dest, "error", err)
		}
	}, nil
}

// exists reports whether dest holds a database. An empty directory counts
// as missing, any other directory without a manifest is a format error.
func (s *Storage) exists(dest string) (bool, error) {
	if s.opts.InMemory {
		s.mu.Lock()
		defer s.mu.Unlock()
		_, ok := s.memDBs[dest]
		return ok, nil
	}
	info, err := os.Stat(dest)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, core.NewStorageError("load", dest, core.ErrIO, err)
	}
	if !info.IsDir() {
		return false, core.NewStorageError("load", dest, core.ErrFormat, fmt.Errorf("%s is not a directory", dest))
	}
	if _, err := os.Stat(filepath.Join(dest, manifestFile)); err == nil {
		return true, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, core.NewStorageError("load", dest, core.ErrIO, err)
	}
	entries, err := os.ReadDir(dest)
	if err != nil {
		return false, core.NewStorageError("load", dest, core.ErrIO, err)
	}
	if len(entries) == 0 {
		return false, nil
	}
	return false, core.NewStorageError("load", dest, core.ErrFormat, errors.New("not a badger database"))
}

// Save replaces the stored notebook in a single transaction. The whole
// notebook must fit in one badger transaction; larger notebooks fail with
// ErrIO wrapping badger.ErrTxnTooBig and leave the stored copy untouched.
func (s *Storage) Save(ctx context.Context, nb *core.Notebook, dest string) error {
	if err := ctx.Err(); err != nil {
		return core.NewStorageError("save", dest, core.ErrIO, err)
	}

	meta, err := json.Marshal(schema.HeaderOf(nb))
	if err != nil {
		return core.NewStorageError("save", dest, core.ErrFormat, err)
	}
	records := make(map[string][]byte, nb.Len())
	for n := range nb.AllNotes() {
		data, err := json.Marshal(schema.FromNote(n))
		if err != nil {
			return core.NewStorageError("save", dest, core.ErrFormat, fmt.Errorf("note %s: %w", n.ID, err))
		}
		records[n.ID.String()] = data
	}

	db, closeDB, err := s.open(dest, false)
	if err != nil {
		return core.NewStorageError("save", dest, core.ErrIO, err)
	}
	defer closeDB()

	err = db.Update(func(txn *badger.Txn) error {
		// Drop notes that are gone.
		it := txn.NewIterator(badger.IteratorOptions{Prefix: notePrefix})
		var stale [][]byte
		for it.Rewind(); it.Valid(); it.Next() {
			key := it.Item().KeyCopy(nil)
			if _, keep := records[string(key[len(notePrefix):])]; !keep {
				stale = append(stale, key)
			}
		}
		it.Close()
		for _, key := range stale {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}

		for id, data := range records {
			if err := txn.Set(noteKey(id), data); err != nil {
				return err
			}
		}
		return txn.Set(metaKey, meta)
	})
	if errors.Is(err, badger.ErrTxnTooBig) {
		return core.NewStorageError("save", dest, core.ErrIO,
			fmt.Errorf("notebook with %d notes does not fit in one transaction: %w", len(records), err))
	}
	if err != nil {
		return core.NewStorageError("save", dest, core.ErrIO, err)
	}

	s.mu.Lock()
	now := time.Now()
	s.saves++
	s.lastSave = &now
	s.mu.Unlock()

	s.opts.Logger.Debug("notebook written to badger", "path", dest, "notes", len(records))
	return nil
}

// Load reads the notebook stored in dest.
func (s *Storage) Load(ctx context.Context, dest string) (*core.Notebook, error) {
	if err := ctx.Err(); err != nil {
		return nil, core.NewStorageError("load", dest, core.ErrIO, err)
	}

	ok, err := s.exists(dest)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, core.NewStorageError("load", dest, core.ErrNotFound, nil)
	}

	db, closeDB, err := s.open(dest, true)
	if err != nil {
		return nil, core.NewStorageError("load", dest, core.ErrIO, err)
	}
	defer closeDB()

	var header schema.Header
	var notes []core.Note
	err = db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(metaKey)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return core.NewStorageError("load", dest, core.ErrFormat, errors.New("missing notebook header"))
		}
		if err != nil {
			return err
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &header)
		}); err != nil {
			return core.NewStorageError("load", dest, core.ErrFormat, err)
		}

		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(notePrefix); it.ValidForPrefix(notePrefix); it.Next() {
			var n core.Note
			err := it.Item().Value(func(val []byte) error {
				var rec schema.NoteRecord
				if err := json.Unmarshal(val, &rec); err != nil {
					return err
				}
				var convErr error
				n, convErr = rec.ToNote()
				return convErr
			})
			if err != nil {
				return core.NewStorageError("load", dest, core.ErrFormat, fmt.Errorf("key %s: %w", it.Item().Key(), err))
			}
			notes = append(notes, n)
		}
		return nil
	})
	if err != nil {
		var se *core.StorageError
		if errors.As(err, &se) {
			return nil, err
		}
		return nil, core.NewStorageError("load", dest, core.ErrIO, err)
	}

	nb, err := schema.HeaderToNotebook(header)
	if err != nil {
		return nil, core.NewStorageError("load", dest, core.ErrFormat, err)
	}
	schema.Assemble(nb, notes)

	s.mu.Lock()
	s.loads++
	s.mu.Unlock()
	return nb, nil
}

// Close releases in-memory databases.
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []error
	for dest, db := range s.memDBs {
		errs = append(errs, db.Close())
		delete(s.memDBs, dest)
	}
	return errors.Join(errs...)
}

// StorageState exposes internal state for observability.
type StorageState struct {
	InMemory bool       `json:"in_memory"`
	Saves    int        `json:"saves"`
	Loads    int        `json:"loads"`
	LastSave *time.Time `json:"last_save,omitempty"`
}

// State implements introspection.Introspectable.
func (s *Storage) State() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StorageState{
		InMemory: s.opts.InMemory,
		Saves:    s.saves,
		Loads:    s.loads,
		LastSave: s.lastSave,
	}
}

// ComponentType implements introspection.Component.
func (s *Storage) ComponentType() string {
	return "badger-storage"
}

var (
	_ core.Storage                 = (*Storage)(nil)
	_ introspection.Introspectable = (*Storage)(nil)
	_ introspection.Component      = (*Storage)(nil)
)

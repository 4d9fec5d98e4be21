// Package sqlite stores notebooks in a single SQLite file.
// Uses ncruces/go-sqlite3 which provides a database/sql interface backed by
// an embedded wasm build, so no cgo is involved.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/aretw0/introspection"
	"github.com/ncruces/go-sqlite3"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/aretw0/nexia/pkg/core"
	"github.com/aretw0/nexia/pkg/schema"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS notebook (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS notes (
    id     TEXT PRIMARY KEY,
    record TEXT NOT NULL
);
`

const headerKey = "header"

// Options configures the sqlite storage.
type Options struct {
	Logger *slog.Logger
}

// Storage implements core.Storage on a SQLite database file.
type Storage struct {
	logger *slog.Logger

	mu       sync.Mutex
	saves    int
	loads    int
	lastSave *time.Time
}

// NewStorage creates a sqlite storage.
func NewStorage(opts Options) *Storage {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Storage{logger: opts.Logger}
}

func (s *Storage) open(ctx context.Context, dest string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", "file:"+dest)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return db, nil
}

// openReadOnly opens dest without creating anything, and checks that both
// tables are present.
func (s *Storage) openReadOnly(ctx context.Context, dest string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", "file:"+dest+"?mode=ro")
	if err != nil {
		return nil, core.NewStorageError("load", dest, core.ErrIO, err)
	}
	var tables int
	err = db.QueryRowContext(ctx,
		"SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name IN ('notebook', 'notes')",
	).Scan(&tables)
	if err != nil {
		db.Close()
		return nil, core.NewStorageError("load", dest, classify(err), err)
	}
	if tables != 2 {
		db.Close()
		return nil, core.NewStorageError("load", dest, core.ErrFormat, errors.New("not a notebook database"))
	}
	return db, nil
}

// classify maps content errors reported by SQLite to ErrFormat.
func classify(err error) error {
	if errors.Is(err, sqlite3.NOTADB) || errors.Is(err, sqlite3.CORRUPT) {
		return core.ErrFormat
	}
	return core.ErrIO
}

// Save replaces the stored notebook in one transaction.
func (s *Storage) Save(ctx context.Context, nb *core.Notebook, dest string) (err error) {
	header, err := json.Marshal(schema.HeaderOf(nb))
	if err != nil {
		return core.NewStorageError("save", dest, core.ErrFormat, err)
	}

	db, err := s.open(ctx, dest)
	if err != nil {
		return core.NewStorageError("save", dest, core.ErrIO, err)
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return core.NewStorageError("save", dest, core.ErrIO, err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM notes"); err != nil {
		return core.NewStorageError("save", dest, core.ErrIO, err)
	}
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO notes (id, record) VALUES (?, ?)")
	if err != nil {
		return core.NewStorageError("save", dest, core.ErrIO, err)
	}
	defer stmt.Close()

	count := 0
	for n := range nb.AllNotes() {
		data, mErr := json.Marshal(schema.FromNote(n))
		if mErr != nil {
			err = core.NewStorageError("save", dest, core.ErrFormat, fmt.Errorf("note %s: %w", n.ID, mErr))
			return err
		}
		if _, err = stmt.ExecContext(ctx, n.ID.String(), string(data)); err != nil {
			return core.NewStorageError("save", dest, core.ErrIO, err)
		}
		count++
	}

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO notebook (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, headerKey, string(header)); err != nil {
		return core.NewStorageError("save", dest, core.ErrIO, err)
	}
	if err = tx.Commit(); err != nil {
		return core.NewStorageError("save", dest, core.ErrIO, err)
	}

	s.mu.Lock()
	now := time.Now()
	s.saves++
	s.lastSave = &now
	s.mu.Unlock()

	s.logger.Debug("notebook written to sqlite", "path", dest, "notes", count)
	return nil
}

// Load reads the notebook stored in dest.
func (s *Storage) Load(ctx context.Context, dest string) (*core.Notebook, error) {
	if _, err := os.Stat(dest); errors.Is(err, fs.ErrNotExist) {
		return nil, core.NewStorageError("load", dest, core.ErrNotFound, nil)
	} else if err != nil {
		return nil, core.NewStorageError("load", dest, core.ErrIO, err)
	}

	db, err := s.openReadOnly(ctx, dest)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var raw string
	err = db.QueryRowContext(ctx, "SELECT value FROM notebook WHERE key = ?", headerKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.NewStorageError("load", dest, core.ErrFormat, errors.New("missing notebook header"))
	}
	if err != nil {
		return nil, core.NewStorageError("load", dest, classify(err), err)
	}
	var header schema.Header
	if err := json.Unmarshal([]byte(raw), &header); err != nil {
		return nil, core.NewStorageError("load", dest, core.ErrFormat, err)
	}

	rows, err := db.QueryContext(ctx, "SELECT id, record FROM notes ORDER BY id")
	if err != nil {
		return nil, core.NewStorageError("load", dest, classify(err), err)
	}
	defer rows.Close()

	var notes []core.Note
	for rows.Next() {
		var id, record string
		if err := rows.Scan(&id, &record); err != nil {
			return nil, core.NewStorageError("load", dest, core.ErrIO, err)
		}
		var rec schema.NoteRecord
		if err := json.Unmarshal([]byte(record), &rec); err != nil {
			return nil, core.NewStorageError("load", dest, core.ErrFormat, fmt.Errorf("note %s: %w", id, err))
		}
		if rec.ID == "" {
			rec.ID = id
		}
		n, err := rec.ToNote()
		if err != nil {
			return nil, core.NewStorageError("load", dest, core.ErrFormat, fmt.Errorf("note %s: %w", id, err))
		}
		if n.ID.String() != id {
			return nil, core.NewStorageError("load", dest, core.ErrFormat, fmt.Errorf("row %s holds note %s", id, n.ID))
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
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

// StorageState exposes internal state for observability.
type StorageState struct {
	Saves    int        `json:"saves"`
	Loads    int        `json:"loads"`
	LastSave *time.Time `json:"last_save,omitempty"`
}

// State implements introspection.Introspectable.
func (s *Storage) State() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StorageState{Saves: s.saves, Loads: s.loads, LastSave: s.lastSave}
}

// ComponentType implements introspection.Component.
func (s *Storage) ComponentType() string {
	return "sqlite-storage"
}

var (
	_ core.Storage                 = (*Storage)(nil)
	_ introspection.Introspectable = (*Storage)(nil)
	_ introspection.Component      = (*Storage)(nil)
)

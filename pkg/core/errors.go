package core

import (
	"errors"
	"fmt"
)

// Graph errors.
var (
	ErrNoteNotFound = errors.New("note not found")
	ErrCircularLink = errors.New("cannot create circular link")
)

// Storage errors.
var (
	ErrNotFound = errors.New("notebook not found")
	ErrIO       = errors.New("storage i/o error")
	ErrFormat   = errors.New("invalid notebook format")
)

// Boundary errors.
var (
	ErrInvalidNoteID = errors.New("invalid note id")
	ErrNoPath        = errors.New("no file path specified")
	ErrReadOnly      = errors.New("notebook is in read-only mode")
	ErrUnsupported   = errors.New("operation not supported by storage")
)

// NoteNotFoundError reports the id that could not be resolved.
type NoteNotFoundError struct {
	ID NoteID
}

func (e *NoteNotFoundError) Error() string {
	return fmt.Sprintf("note not found: %s", e.ID)
}

func (e *NoteNotFoundError) Is(target error) bool {
	return target == ErrNoteNotFound
}

func noteNotFound(id NoteID) error {
	return &NoteNotFoundError{ID: id}
}

// StorageError describes a failed Save or Load.
// It matches both its Kind (ErrNotFound, ErrIO, ErrFormat) and its cause
// with errors.Is.
type StorageError struct {
	Op   string // "save" or "load"
	Path string
	Kind error
	Err  error
}

func (e *StorageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Kind)
	}
	return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Path, e.Kind, e.Err)
}

func (e *StorageError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewStorageError builds a StorageError. Adapters use it so that callers can
// tell missing, unreadable and malformed destinations apart.
func NewStorageError(op, path string, kind, err error) error {
	return &StorageError{Op: op, Path: path, Kind: kind, Err: err}
}

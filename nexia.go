package nexia

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/nexia/internal/platform"
	"github.com/aretw0/nexia/pkg/core"
	"github.com/aretw0/nexia/pkg/typed"
)

// Version exposes the version of the library.
const Version = "0.3.0"

// --- Types ---

// Note is a public alias for core.Note.
type Note = core.Note

// NoteID is a public alias for core.NoteID.
type NoteID = core.NoteID

// Notebook is a public alias for core.Notebook.
type Notebook = core.Notebook

// Service is a public alias for core.Service.
type Service = core.Service

// NoteModel is a public alias for the typed note model.
type NoteModel[T any] = typed.NoteModel[T]

// TypedService is a public alias for the typed service.
type TypedService[T any] = typed.Service[T]

// --- Configuration ---

// Option defines a functional option for configuring Nexia.
type Option = platform.Option

// WithLogger sets the logger for the service and its storage.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithAdapter selects the storage backend: "json", "yaml", "badger" or "sqlite".
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithStorage allows injecting a custom storage (e.g. mock).
func WithStorage(s core.Storage) Option {
	return platform.WithStorage(s)
}

// WithAutoInit creates the notebook (and git repository, with versioning) when missing.
func WithAutoInit(auto bool) Option {
	return platform.WithAutoInit(auto)
}

// WithMustExist fails when no notebook is stored at the path yet.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithVersioning commits the notebook with git after every save.
func WithVersioning(enabled bool) Option {
	return platform.WithVersioning(enabled)
}

// WithAcyclicLinks rejects links that would close a cycle.
func WithAcyclicLinks(enabled bool) Option {
	return platform.WithAcyclicLinks(enabled)
}

// WithReadOnly rejects every mutation with core.ErrReadOnly.
func WithReadOnly(enabled bool) Option {
	return platform.WithReadOnly(enabled)
}

// WithName names a newly created notebook.
func WithName(name string) Option {
	return platform.WithName(name)
}

// WithDebounce sets the window used to coalesce watch events.
func WithDebounce(d time.Duration) Option {
	return platform.WithDebounce(d)
}

// WithWatcherErrorHandler receives runtime watcher failures.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// WithForceTemp forces the notebook into a temporary directory.
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithDevSafety controls the `go run` sandbox. Enabled by default.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// --- Factories ---

// New opens or creates the notebook at path.
func New(path string, opts ...Option) (*core.Service, error) {
	return platform.New(path, opts...)
}

// OpenStorage returns the storage the options select for path.
func OpenStorage(path string, opts ...Option) (core.Storage, error) {
	return platform.OpenStorage(path, opts...)
}

// NewTypedService creates a type-safe wrapper around an existing service.
func NewTypedService[T any](svc *core.Service) *typed.Service[T] {
	return typed.NewService[T](svc)
}

// OpenTypedService simplifies creating a TypedService from a path.
func OpenTypedService[T any](path string, opts ...Option) (*typed.Service[T], error) {
	svc, err := New(path, opts...)
	if err != nil {
		return nil, err
	}
	return typed.NewService[T](svc), nil
}

// --- Safety & Utils ---

// FindNotebook looks upwards from startDir for a notebook file.
func FindNotebook(startDir string) (string, error) {
	return platform.FindNotebook(startDir)
}

// IsDevRun checks if the current process is running via `go run` or `go test`.
func IsDevRun() bool {
	return platform.IsDevRun()
}

// --- Change Reasons ---

const (
	CommitTypeFeat     = platform.CommitTypeFeat
	CommitTypeFix      = platform.CommitTypeFix
	CommitTypeDocs     = platform.CommitTypeDocs
	CommitTypeRefactor = platform.CommitTypeRefactor
	CommitTypeChore    = platform.CommitTypeChore
)

// FormatChangeReason builds a Conventional Commit message.
func FormatChangeReason(ctype, scope, subject, body string) string {
	return platform.FormatChangeReason(ctype, scope, subject, body)
}

// WithChangeReason attaches the commit message used by a versioned Save.
func WithChangeReason(ctx context.Context, msg string) context.Context {
	return context.WithValue(ctx, core.ChangeReasonKey, msg)
}

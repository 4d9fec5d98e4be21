package platform

import (
	"log/slog"
	"time"

	"github.com/aretw0/nexia/pkg/core"
)

// Adapter names accepted by WithAdapter.
const (
	AdapterJSON   = "json"
	AdapterYAML   = "yaml"
	AdapterBadger = "badger"
	AdapterSQLite = "sqlite"
)

// options holds the internal configuration for opening a notebook.
type options struct {
	storage      core.Storage
	logger       *slog.Logger
	adapter      string
	name         string
	autoInit     bool
	mustExist    bool
	versioning   bool
	acyclic      bool
	readOnly     bool
	forceTemp    bool
	devSafety    bool
	debounce     time.Duration
	errorHandler func(error)
}

// Option defines a functional option for configuring Nexia.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		devSafety: true,
	}
}

func parseOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// WithLogger sets the logger for the service and its storage.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithAdapter selects the storage backend by name: "json", "yaml", "badger"
// or "sqlite". When unset it is inferred from the notebook path.
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithStorage injects a custom storage (e.g. a mock).
// If provided, WithAdapter is ignored.
func WithStorage(s core.Storage) Option {
	return func(o *options) {
		o.storage = s
	}
}

// WithAutoInit creates the notebook, its directory and (with versioning) the
// git repository when they are missing.
func WithAutoInit(auto bool) Option {
	return func(o *options) {
		o.autoInit = auto
	}
}

// WithMustExist makes New fail when the notebook has not been saved yet.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.mustExist = must
	}
}

// WithVersioning commits the notebook with git after every save.
func WithVersioning(enabled bool) Option {
	return func(o *options) {
		o.versioning = enabled
	}
}

// WithAcyclicLinks rejects links that would close a cycle in new notebooks.
func WithAcyclicLinks(enabled bool) Option {
	return func(o *options) {
		o.acyclic = enabled
	}
}

// WithReadOnly enables read-only mode.
// In this mode:
// 1. Mutations and Save return ErrReadOnly.
// 2. Initialization (Mkdir, Git Init) is skipped.
// 3. The dev sandbox is bypassed (uses the real path).
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.readOnly = enabled
	}
}

// WithName names the notebook created when none exists at the path.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithDebounce sets the window used to coalesce watch events.
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		o.debounce = d
	}
}

// WithWatcherErrorHandler receives runtime watcher failures which are
// otherwise only logged.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.errorHandler = fn
	}
}

// WithForceTemp forces the notebook into a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.forceTemp = force
	}
}

// WithDevSafety controls the sandbox used when running via `go run`.
// By default (true) notebooks outside the temp dir are redirected into it.
//
// CAUTION: Only disable this if you are sure your code is safe.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.devSafety = enabled
	}
}

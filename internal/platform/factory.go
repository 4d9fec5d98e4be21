package platform

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/nexia/pkg/adapters/badgerdb"
	"github.com/aretw0/nexia/pkg/adapters/fs"
	"github.com/aretw0/nexia/pkg/adapters/sqlite"
	"github.com/aretw0/nexia/pkg/core"
	"github.com/aretw0/nexia/pkg/git"
)

// New opens the notebook stored at path, or starts a fresh one there.
//
//	svc, err := nexia.New("./journal.nexia.json", nexia.WithAutoInit(true))
//
// The path is adapter-specific: a file for json, yaml and sqlite, a
// directory for badger.
func New(path string, opts ...Option) (*core.Service, error) {
	o := parseOptions(opts)
	ctx := context.Background()

	if path == "" {
		return nil, core.ErrNoPath
	}

	bypassSafety := o.readOnly || !o.devSafety
	useTemp := o.forceTemp || (IsDevRun() && !bypassSafety)
	resolved := ResolveNotebookPath(path, useTemp)
	if resolved != path {
		o.logger.Warn("running in SAFE MODE (Dev/Test)", "original_path", path, "resolved_path", resolved)
	}

	storage, err := openStorage(resolved, o)
	if err != nil {
		return nil, err
	}

	svcOpts := []core.ServiceOption{
		core.WithServiceLogger(o.logger),
		core.WithServiceReadOnly(o.readOnly),
		core.WithServicePath(resolved),
		core.WithNotebookOptions(core.WithAcyclicLinks(o.acyclic)),
	}

	nb, err := storage.Load(ctx, resolved)
	switch {
	case err == nil:
		svcOpts = append(svcOpts, core.WithNotebook(nb))
		return core.NewService(storage, svcOpts...), nil
	case !errors.Is(err, core.ErrNotFound):
		return nil, err
	case o.mustExist:
		return nil, fmt.Errorf("notebook %s does not exist: %w", resolved, err)
	}

	name := o.name
	if name == "" {
		name = nameFromPath(resolved)
	}
	svcOpts = append(svcOpts, core.WithNotebook(core.NewNotebook(name, core.WithAcyclicLinks(o.acyclic))))
	svc := core.NewService(storage, svcOpts...)

	if o.autoInit && !o.readOnly {
		if err := os.MkdirAll(filepath.Dir(resolved), 0755); err != nil {
			return nil, fmt.Errorf("failed to create notebook directory: %w", err)
		}
		if err := svc.Save(context.WithValue(ctx, core.ChangeReasonKey, "create "+filepath.Base(resolved)), ""); err != nil {
			return nil, fmt.Errorf("failed to initialize notebook: %w", err)
		}
		o.logger.Info("notebook initialized", "path", resolved, "name", name)
	}
	return svc, nil
}

// OpenStorage builds the storage the options select for path, without
// loading anything.
func OpenStorage(path string, opts ...Option) (core.Storage, error) {
	return openStorage(path, parseOptions(opts))
}

func openStorage(path string, o *options) (core.Storage, error) {
	storage := o.storage
	if storage == nil {
		adapter := o.adapter
		if adapter == "" {
			adapter = AdapterFor(path)
		}
		switch adapter {
		case AdapterJSON, AdapterYAML:
			ext := fs.DefaultExtension
			if adapter == AdapterYAML {
				ext = ".yaml"
			}
			storage = fs.NewStorage(fs.Config{
				Logger:       o.logger,
				DefaultExt:   ext,
				CreateDirs:   o.autoInit,
				Debounce:     o.debounce,
				ErrorHandler: o.errorHandler,
			})
		case AdapterBadger:
			storage = badgerdb.NewStorage(badgerdb.Options{Logger: o.logger, SyncWrites: true})
		case AdapterSQLite:
			storage = sqlite.NewStorage(sqlite.Options{Logger: o.logger})
		default:
			return nil, fmt.Errorf("unknown adapter: %s", adapter)
		}
	}

	if !o.versioning || o.readOnly {
		return storage, nil
	}
	if !git.IsInstalled() {
		return nil, errors.New("versioning requires git to be installed")
	}
	if !o.autoInit {
		client := git.NewClient(filepath.Dir(path), o.logger)
		if !client.IsRepo(context.Background()) {
			return nil, fmt.Errorf("versioning enabled but %s is not a git repository (use auto init)", client.WorkDir)
		}
	}
	return NewVersionedStorage(storage, o.logger, o.autoInit), nil
}

// AdapterFor infers the adapter from a notebook path.
func AdapterFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return AdapterYAML
	case ".db", ".sqlite", ".sqlite3":
		return AdapterSQLite
	case ".badger":
		return AdapterBadger
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return AdapterBadger
	}
	return AdapterJSON
}

// nameFromPath turns "notes/journal.nexia.json" into "journal".
func nameFromPath(path string) string {
	name := filepath.Base(path)
	if i := strings.Index(name, "."); i > 0 {
		name = name[:i]
	}
	if name == "" || name == "." {
		return core.DefaultNotebookName
	}
	return name
}

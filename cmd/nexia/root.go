package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/aretw0/nexia"
	"github.com/aretw0/nexia/internal/config"
	"github.com/aretw0/nexia/internal/platform"
	"github.com/aretw0/nexia/pkg/core"
)

var (
	notebookPath string
	adapterName  string
	verbose      bool
	jsonOutput   bool

	cfg    config.Config
	logger = slog.New(slog.DiscardHandler)
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "nexia",
	Short: "A personal knowledge graph of linked notes",
	Long: `Nexia keeps notes in a notebook file and tracks the links between them.
Every note knows which notes link back to it.

The notebook is taken from --notebook, then NEXIA_NOTEBOOK, then the first
*.nexia.json|yaml|yml file found walking up from the current directory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Parse()
		if err != nil {
			return err
		}

		level := cfg.Level()
		if verbose {
			level = slog.LevelDebug
		}

		var handler slog.Handler
		if cfg.Pretty {
			handler = tint.NewHandler(os.Stderr, &tint.Options{
				Level:      level,
				TimeFormat: time.Kitchen,
			})
		} else {
			handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
		}
		logger = slog.New(handler)
		slog.SetDefault(logger)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&notebookPath, "notebook", "n", "", "Notebook path")
	rootCmd.PersistentFlags().StringVar(&adapterName, "adapter", "", "Storage adapter (json, yaml, badger, sqlite)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
}

// resolveNotebook picks the notebook path from the flag, the environment or
// the nearest notebook file above the working directory.
func resolveNotebook() (string, error) {
	if notebookPath != "" {
		return notebookPath, nil
	}
	if cfg.Notebook != "" {
		return cfg.Notebook, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	path, err := nexia.FindNotebook(wd)
	if errors.Is(err, platform.ErrNotebookNotFound) {
		return "", errors.New("no notebook found; pass --notebook or run 'nexia new'")
	}
	return path, err
}

func baseOptions() []nexia.Option {
	adapter := adapterName
	if adapter == "" {
		adapter = cfg.Adapter
	}
	return []nexia.Option{
		nexia.WithLogger(logger),
		nexia.WithAdapter(adapter),
		nexia.WithVersioning(cfg.Versioning),
		nexia.WithAcyclicLinks(cfg.Acyclic),
		nexia.WithDebounce(cfg.Debounce),
	}
}

// openService opens the existing notebook.
func openService(extra ...nexia.Option) (*core.Service, error) {
	path, err := resolveNotebook()
	if err != nil {
		return nil, err
	}
	opts := append(baseOptions(), nexia.WithMustExist(true))
	svc, err := nexia.New(path, append(opts, extra...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to open notebook: %w", err)
	}
	return svc, nil
}

// save persists the notebook, recording reason as the change reason.
func save(ctx context.Context, svc *core.Service, reason string) error {
	if err := svc.Save(nexia.WithChangeReason(ctx, reason), ""); err != nil {
		return fmt.Errorf("failed to save notebook: %w", err)
	}
	return nil
}

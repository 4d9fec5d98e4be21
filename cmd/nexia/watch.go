package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/aretw0/nexia"
	nexialc "github.com/aretw0/nexia/pkg/adapters/lifecycle"
	"github.com/aretw0/nexia/pkg/core"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Report changes made to the notebook by other programs",
	Long: `Watch the notebook file and print an event whenever another program
creates, modifies or deletes it. The notebook is reloaded after each change.
Stops on Ctrl+C.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		svc, err := openService(nexia.WithReadOnly(true))
		if err != nil {
			return err
		}
		events, err := svc.Watch(ctx)
		if errors.Is(err, core.ErrUnsupported) {
			return fmt.Errorf("the %s adapter cannot be watched", adapterOf(svc))
		}
		if err != nil {
			return err
		}

		src := nexialc.NewSource(events)
		if err := src.Start(ctx); err != nil {
			return err
		}

		eg, ctx := errgroup.WithContext(ctx)
		eg.Go(func() error {
			for e := range src.Events() {
				ev, ok := e.(core.Event)
				if !ok {
					continue
				}
				if ev.Type != core.EventDelete {
					if err := svc.Reload(ctx); err != nil {
						logger.Warn("failed to reload notebook", "path", ev.Path, "error", err)
					}
				}
				if err := report(ctx, svc, ev); err != nil {
					return err
				}
			}
			return nil
		})

		logger.Info("watching notebook", "path", svc.Path())
		if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

type watchReport struct {
	Type  core.EventType `json:"type"`
	Path  string         `json:"path"`
	Time  time.Time      `json:"time"`
	Notes int            `json:"notes"`
}

func report(ctx context.Context, svc *core.Service, ev core.Event) error {
	notes := svc.Info(ctx).Notes
	if jsonOutput {
		return printJSON(watchReport{Type: ev.Type, Path: ev.Path, Time: ev.Timestamp, Notes: notes})
	}
	fmt.Printf("%s %s (%d notes)\n", ev.Timestamp.Local().Format(time.TimeOnly), ev, notes)
	return nil
}

func adapterOf(svc *core.Service) string {
	if st, ok := svc.State().(core.ServiceState); ok {
		return st.StorageType
	}
	return "selected"
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

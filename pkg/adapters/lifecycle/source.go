// Package lifecycle exposes notebook change events as a lifecycle.Source, so
// a supervised application can react to edits made outside the process.
package lifecycle

import (
	"context"
	"slices"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/nexia/pkg/core"
)

type notebookSource struct {
	events <-chan core.Event
	types  []core.EventType
	out    chan lifecycle.Event
}

// NewSource creates a lifecycle.Source that emits notebook events.
// When types is non-empty only events of those types are forwarded.
func NewSource(events <-chan core.Event, types ...core.EventType) lifecycle.Source {
	return &notebookSource{
		events: events,
		types:  types,
		out:    make(chan lifecycle.Event),
	}
}

func (s *notebookSource) Events() <-chan lifecycle.Event {
	return s.out
}

func (s *notebookSource) accepts(e core.Event) bool {
	return len(s.types) == 0 || slices.Contains(s.types, e.Type)
}

func (s *notebookSource) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-s.events:
				if !ok {
					return nil
				}
				if !s.accepts(e) {
					continue
				}
				select {
				case s.out <- e:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return nil
}

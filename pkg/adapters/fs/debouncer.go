package fs

import (
	"sync"
	"time"

	"github.com/aretw0/nexia/pkg/core"
)

// debouncer coalesces bursts of events for the same path: only the last
// event seen within the window is delivered.
type debouncer struct {
	window time.Duration

	mu      sync.Mutex
	pending map[string]*pendingEvent
	stopped bool
	wg      sync.WaitGroup
}

type pendingEvent struct {
	event core.Event
	timer *time.Timer
}

func newDebouncer(window time.Duration) *debouncer {
	return &debouncer{
		window:  window,
		pending: make(map[string]*pendingEvent),
	}
}

// add schedules deliver(event) after the window, replacing any event still
// pending for the same path.
func (d *debouncer) add(event core.Event, deliver func(core.Event)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	if p, ok := d.pending[event.Path]; ok {
		if p.timer.Stop() {
			p.event = event
			p.timer.Reset(d.window)
			return
		}
		// Timer already fired; its callback owns the old entry.
	}

	p := &pendingEvent{event: event}
	d.pending[event.Path] = p
	d.wg.Add(1)
	p.timer = time.AfterFunc(d.window, func() {
		defer d.wg.Done()

		d.mu.Lock()
		current := d.pending[event.Path]
		if current == p {
			delete(d.pending, event.Path)
		}
		e := p.event
		d.mu.Unlock()

		deliver(e)
	})
}

// stopAndWait drops pending events and waits up to timeout for callbacks
// already running.
func (d *debouncer) stopAndWait(timeout time.Duration) {
	d.mu.Lock()
	d.stopped = true
	for path, p := range d.pending {
		if p.timer.Stop() {
			d.wg.Done()
		}
		delete(d.pending, path)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
	}
}

package dispatch

import (
	"context"
	"log"
	"sync"

	"github.com/ayusman/posesurf/internal/gesture"
)

// LogDispatcher is a dry-run dispatcher that only logs the keys it would press.
type LogDispatcher struct {
	mu   sync.Mutex
	open bool
	sent int
}

// NewLogDispatcher creates a dry-run dispatcher.
func NewLogDispatcher() *LogDispatcher {
	return &LogDispatcher{}
}

func (d *LogDispatcher) Open(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.open = true
	return nil
}

func (d *LogDispatcher) Dispatch(ctx context.Context, a gesture.Action) error {
	key, err := KeyFor(a)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.open {
		return ErrNotOpen
	}
	d.sent++
	log.Printf("Dry run: %s -> %s key", a, key)
	return nil
}

func (d *LogDispatcher) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.open = false
	return nil
}

// Sent returns how many actions were dispatched.
func (d *LogDispatcher) Sent() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sent
}

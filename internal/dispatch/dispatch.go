// Package dispatch delivers game actions to the target application as key presses.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/posesurf/internal/gesture"
)

var (
	// ErrUnknownDispatcher is returned by New for an unrecognised Kind.
	ErrUnknownDispatcher = errors.New("unknown dispatcher")
	// ErrNotOpen is returned when dispatching before Open or after Close.
	ErrNotOpen = errors.New("dispatcher is not open")
)

// Key is a control key of the target game.
type Key string

const (
	KeyUp    Key = "up"
	KeyDown  Key = "down"
	KeyLeft  Key = "left"
	KeyRight Key = "right"
)

// KeyFor returns the key bound to an action: jump is up, slide is down,
// left and right are the matching arrows.
func KeyFor(a gesture.Action) (Key, error) {
	switch a {
	case gesture.Jump:
		return KeyUp, nil
	case gesture.Slide:
		return KeyDown, nil
	case gesture.Left:
		return KeyLeft, nil
	case gesture.Right:
		return KeyRight, nil
	}
	return "", fmt.Errorf("no key bound to %v", a)
}

// Dispatcher sends actions to the target application.
//
// Open acquires the automation session, Dispatch presses the action's key
// and Close releases the session. Dispatch errors are not retried; the
// caller is expected to end the session.
type Dispatcher interface {
	Open(ctx context.Context) error
	Dispatch(ctx context.Context, a gesture.Action) error
	Close() error
}

// Dispatcher kinds accepted by New.
const (
	KindBrowser = "browser"
	KindPlugin  = "plugin"
	KindLog     = "log"
)

// Config selects and configures a Dispatcher.
type Config struct {
	// Kind is one of KindBrowser, KindPlugin or KindLog.
	Kind string

	// URL is the page the browser session opens.
	URL string
	// Headless runs the browser without a window.
	Headless bool

	// PluginDir is searched for PluginName.
	PluginDir     string
	PluginName    string
	PluginTimeout time.Duration
}

// DefaultGameURL is the runner game opened by the browser dispatcher.
const DefaultGameURL = "https://poki.com/en/g/subway-surfers"

// DefaultConfig returns a browser dispatcher pointed at the default game.
func DefaultConfig() Config {
	return Config{
		Kind:          KindBrowser,
		URL:           DefaultGameURL,
		PluginName:    "keyboard",
		PluginTimeout: 2 * time.Second,
	}
}

// New creates the dispatcher described by cfg. It does not open it.
func New(cfg Config) (Dispatcher, error) {
	switch cfg.Kind {
	case KindBrowser:
		if cfg.URL == "" {
			return nil, errors.New("browser dispatcher needs a URL")
		}
		return NewBrowserDispatcher(cfg.URL, cfg.Headless), nil
	case KindPlugin:
		return NewPluginDispatcher(cfg.PluginDir, cfg.PluginName, cfg.PluginTimeout), nil
	case KindLog:
		return NewLogDispatcher(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDispatcher, cfg.Kind)
}

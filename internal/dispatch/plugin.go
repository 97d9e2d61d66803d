package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/ayusman/posesurf/internal/gesture"
	"github.com/ayusman/posesurf/internal/plugin"
)

// keystrokeAction is the plugin action that presses one key.
const keystrokeAction = "keystroke"

// PluginDispatcher presses keys through an out-of-process keyboard plugin,
// for targets that are not driven by the browser session.
type PluginDispatcher struct {
	manager  *plugin.Manager
	executor *plugin.Executor
	name     string

	mu     sync.Mutex
	plugin *plugin.Plugin
}

// NewPluginDispatcher creates a dispatcher for the named plugin in dir.
func NewPluginDispatcher(dir, name string, timeout time.Duration) *PluginDispatcher {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &PluginDispatcher{
		manager:  plugin.NewManager(dir),
		executor: plugin.NewExecutor(timeout),
		name:     name,
	}
}

// Open discovers plugins and checks the named one can press keys.
func (d *PluginDispatcher) Open(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.manager.Discover(); err != nil {
		return fmt.Errorf("discover plugins in %s: %w", d.manager.PluginDir(), err)
	}

	p, err := d.manager.Get(d.name)
	if err != nil {
		return fmt.Errorf("%s: %w", d.name, err)
	}
	if !p.Manifest.Supports(keystrokeAction) {
		return fmt.Errorf("plugin %s does not support %s", d.name, keystrokeAction)
	}

	d.plugin = p
	return nil
}

// Dispatch runs the plugin once to press the key bound to a.
func (d *PluginDispatcher) Dispatch(ctx context.Context, a gesture.Action) error {
	key, err := KeyFor(a)
	if err != nil {
		return err
	}

	d.mu.Lock()
	p := d.plugin
	d.mu.Unlock()

	if p == nil {
		return ErrNotOpen
	}

	params, err := json.Marshal(map[string]Key{"key": key})
	if err != nil {
		return err
	}

	resp, err := d.executor.Execute(ctx, p, &plugin.Request{
		Action:  keystrokeAction,
		Gesture: a.String(),
		Params:  params,
	})
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("plugin %s: %s", d.name, resp.Error)
	}

	return nil
}

// Close forgets the plugin. Each keystroke runs its own process, so there
// is nothing else to release.
func (d *PluginDispatcher) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.plugin = nil
	return nil
}

// Package tray provides a system tray menu for a running session: live armed
// status, the last fired action, a pause toggle and quit.
package tray

import (
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/posesurf/internal/app"
	"github.com/ayusman/posesurf/internal/gesture"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle func(enabled bool)
	onQuit   func()
	enabled  bool
	armed    bool
	last     gesture.Action
	mu       sync.RWMutex

	// Menu items stored for later updates
	menuToggle *systray.MenuItem
	menuArmed  *systray.MenuItem
	menuLast   *systray.MenuItem
}

// New creates a new Tray instance with enabled state set to true by default.
func New() *Tray {
	return &Tray{
		enabled: true,
		armed:   true,
	}
}

// OnToggle sets the callback function to be called when the enabled state is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until Quit is called and must run on the main thread.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("posesurf")
	systray.SetTooltip("posesurf pose controller")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Pause or resume gesture control")
	systray.AddSeparator()

	t.menuArmed = systray.AddMenuItem(armedTitle(t.armed), "Whether a new gesture can fire")
	t.menuArmed.Disable()
	t.menuLast = systray.AddMenuItem(lastTitle(t.last), "Last fired action")
	t.menuLast.Disable()
	systray.AddSeparator()
	t.mu.Unlock()

	menuQuit := systray.AddMenuItem("Quit", "Stop the session and quit")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

// handleToggle handles the toggle menu item click.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// Observe updates the status items from a session snapshot. Menu titles are
// only touched when the value changed.
func (t *Tray) Observe(snap app.Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if snap.State.Armed != t.armed {
		t.armed = snap.State.Armed
		if t.menuArmed != nil {
			t.menuArmed.SetTitle(armedTitle(t.armed))
		}
	}
	if snap.LastAction != t.last {
		t.last = snap.LastAction
		if t.menuLast != nil {
			t.menuLast.SetTitle(lastTitle(t.last))
		}
	}
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// Status returns the last observed armed flag and action.
func (t *Tray) Status() (armed bool, last gesture.Action) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.armed, t.last
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Paused"
}

func armedTitle(armed bool) string {
	if armed {
		return "Armed: Yes"
	}
	return "Armed: No"
}

func lastTitle(a gesture.Action) string {
	if !a.Valid() {
		return "Last: none"
	}
	return "Last: " + a.String()
}

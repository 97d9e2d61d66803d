package tray

import (
	"testing"

	"github.com/ayusman/posesurf/internal/app"
	"github.com/ayusman/posesurf/internal/gesture"
)

func TestTray_Defaults(t *testing.T) {
	tr := New()

	if !tr.IsEnabled() {
		t.Error("new tray should be enabled")
	}
	armed, last := tr.Status()
	if !armed || last != 0 {
		t.Errorf("Status() = %v, %v, want armed and no action", armed, last)
	}
}

func TestTray_ToggleCallsBack(t *testing.T) {
	tr := New()

	var got []bool
	tr.OnToggle(func(enabled bool) {
		got = append(got, enabled)
	})

	tr.handleToggle()
	tr.handleToggle()

	if len(got) != 2 || got[0] || !got[1] {
		t.Errorf("toggle callbacks = %v, want [false true]", got)
	}
	if !tr.IsEnabled() {
		t.Error("two toggles should leave the tray enabled")
	}
}

func TestTray_ObserveWithoutMenu(t *testing.T) {
	tr := New()

	tr.Observe(app.Snapshot{
		State:      gesture.State{HeadLatched: true},
		LastAction: gesture.Slide,
	})

	armed, last := tr.Status()
	if armed {
		t.Error("latched state should show disarmed")
	}
	if last != gesture.Slide {
		t.Errorf("last = %v, want slide", last)
	}
}

func TestTitles(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{toggleTitle(true), "● Enabled"},
		{toggleTitle(false), "○ Paused"},
		{armedTitle(true), "Armed: Yes"},
		{armedTitle(false), "Armed: No"},
		{lastTitle(0), "Last: none"},
		{lastTitle(gesture.Jump), "Last: jump"},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("title = %q, want %q", tt.got, tt.want)
		}
	}
}

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ayusman/posesurf/internal/app"
	"github.com/ayusman/posesurf/internal/capture"
	"github.com/ayusman/posesurf/internal/detector"
	"github.com/ayusman/posesurf/internal/dispatch"
	"github.com/ayusman/posesurf/internal/gesture"
	"github.com/ayusman/posesurf/internal/store"
	"github.com/ayusman/posesurf/testdata"
)

// useTempDB points --db at a fresh database for the test.
func useTempDB(t *testing.T) string {
	t.Helper()
	old := dbPath
	dbPath = filepath.Join(t.TempDir(), "history.db")
	t.Cleanup(func() { dbPath = old })
	return dbPath
}

func writeScenario(t *testing.T, name string) string {
	t.Helper()
	data, err := testdata.ScenarioBytes(name)
	if err != nil {
		t.Fatal(err)
	}
	p := filepath.Join(t.TempDir(), name+".jsonl")
	if err := os.WriteFile(p, data, 0644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestRunReplay(t *testing.T) {
	for _, name := range testdata.Scenarios() {
		t.Run(name, func(t *testing.T) {
			var out bytes.Buffer
			if err := runReplay(&out, writeScenario(t, name), false); err != nil {
				t.Fatalf("runReplay() error = %v", err)
			}

			text := out.String()
			for _, action := range testdata.ExpectedActions(name) {
				if !strings.Contains(text, action) {
					t.Errorf("output missing %s:\n%s", action, text)
				}
			}
			if !strings.Contains(text, "FRAME") {
				t.Errorf("output should be a table:\n%s", text)
			}

			// Every scenario ends on a gesture that fired, without a re-arm.
			if !strings.Contains(text, "ending disarmed (") {
				t.Errorf("summary should report the final state:\n%s", text)
			}
		})
	}
}

func TestRunReplay_Record(t *testing.T) {
	useTempDB(t)

	var out bytes.Buffer
	if err := runReplay(&out, writeScenario(t, "all_actions"), true); err != nil {
		t.Fatalf("runReplay() error = %v", err)
	}
	if !strings.Contains(out.String(), "Saved as session") {
		t.Errorf("output should report the saved session:\n%s", out.String())
	}

	st, err := openStore()
	if err != nil {
		t.Fatalf("openStore() error = %v", err)
	}
	defer st.Close()

	sessions, err := st.Sessions().List(0)
	if err != nil || len(sessions) != 1 {
		t.Fatalf("List() = %d sessions, %v; want 1", len(sessions), err)
	}
	if sessions[0].Dispatcher != replayDispatcher || sessions[0].Running() {
		t.Errorf("unexpected session %+v", sessions[0])
	}

	counts, _ := st.Events().CountBySession(sessions[0].ID)
	if counts["jump"] != 1 || counts["right"] != 1 {
		t.Errorf("counts = %v", counts)
	}

	out.Reset()
	if err := printSessions(&out, st, 10); err != nil {
		t.Fatalf("printSessions() error = %v", err)
	}
	if !strings.Contains(out.String(), sessions[0].ID) || !strings.Contains(out.String(), "jump=1") {
		t.Errorf("history listing missing session:\n%s", out.String())
	}

	out.Reset()
	if err := printSession(&out, st, sessions[0].ID); err != nil {
		t.Fatalf("printSession() error = %v", err)
	}
	if !strings.Contains(out.String(), "slide") {
		t.Errorf("session detail missing events:\n%s", out.String())
	}
}

func TestRunReplay_Errors(t *testing.T) {
	var out bytes.Buffer

	if err := runReplay(&out, filepath.Join(t.TempDir(), "missing.jsonl"), false); err == nil {
		t.Error("expected error for a missing script")
	}

	bad := filepath.Join(t.TempDir(), "bad.jsonl")
	os.WriteFile(bad, []byte("{\"pose\":null}\nnot json\n"), 0644)
	err := runReplay(&out, bad, false)
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("runReplay() error = %v, want line 2", err)
	}
}

func TestPrintReplay_Empty(t *testing.T) {
	var out bytes.Buffer
	if err := printReplay(&out, nil, 12, gesture.NewState()); err != nil {
		t.Fatalf("printReplay() error = %v", err)
	}
	if !strings.Contains(out.String(), "No action fired in 12 frames") {
		t.Errorf("output = %q", out.String())
	}
}

func TestPrintSessions_Empty(t *testing.T) {
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer st.Close()

	var out bytes.Buffer
	printSessions(&out, st, 0)
	if !strings.Contains(out.String(), "No sessions recorded yet") {
		t.Errorf("output = %q", out.String())
	}

	if err := printSession(&out, st, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("printSession() error = %v, want ErrNotFound", err)
	}
}

func TestFormatCounts(t *testing.T) {
	tests := []struct {
		counts map[string]int
		want   string
	}{
		{nil, "-"},
		{map[string]int{"right": 1, "jump": 2}, "jump=2 right=1"},
		{map[string]int{"left": 3, "slide": 1}, "slide=1 left=3"},
	}

	for _, tt := range tests {
		if got := formatCounts(tt.counts); got != tt.want {
			t.Errorf("formatCounts(%v) = %q, want %q", tt.counts, got, tt.want)
		}
	}
}

func TestStatus(t *testing.T) {
	running := &store.Session{}
	if status(running) != "running" || formatDuration(running) != "-" {
		t.Error("unfinished session should be running")
	}
}

func TestNewDetector(t *testing.T) {
	d, err := newDetector(PlayOptions{Detector: detectorMock})
	if err != nil {
		t.Fatalf("newDetector(mock) error = %v", err)
	}
	if _, ok := d.(*detector.MockDetector); !ok {
		t.Errorf("newDetector(mock) = %T", d)
	}

	if _, err := newDetector(PlayOptions{Detector: "openpose"}); err == nil {
		t.Error("expected error for an unknown detector")
	}

	_, err = newDetector(PlayOptions{Detector: detectorMediaPipe, SidecarScript: filepath.Join(t.TempDir(), "nope.py")})
	if !errors.Is(err, detector.ErrSidecarNotFound) {
		t.Errorf("newDetector(mediapipe) error = %v, want ErrSidecarNotFound", err)
	}
}

func TestNewDispatcher(t *testing.T) {
	d, err := newDispatcher(PlayOptions{Dispatcher: dispatch.KindLog, PluginDir: t.TempDir()})
	if err != nil {
		t.Fatalf("newDispatcher(log) error = %v", err)
	}
	if _, ok := d.(*dispatch.LogDispatcher); !ok {
		t.Errorf("newDispatcher(log) = %T", d)
	}

	if _, err := newDispatcher(PlayOptions{Dispatcher: "morse", PluginDir: t.TempDir()}); !errors.Is(err, dispatch.ErrUnknownDispatcher) {
		t.Errorf("newDispatcher(morse) error = %v, want ErrUnknownDispatcher", err)
	}
}

func TestPlayResult(t *testing.T) {
	session, err := app.New(app.Config{
		Camera:     capture.NewMockCamera(nil, false),
		Detector:   detector.NewMockDetector(),
		Dispatcher: dispatch.NewLogDispatcher(),
	})
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}

	if err := playResult(session, app.ErrStopped); err != nil {
		t.Errorf("user stop should exit cleanly, got %v", err)
	}
	if err := playResult(session, context.Canceled); err != nil {
		t.Errorf("interrupt should exit cleanly, got %v", err)
	}
	if err := playResult(session, app.ErrDispatch); !errors.Is(err, app.ErrDispatch) {
		t.Errorf("dispatch failure should be returned, got %v", err)
	}
}

func TestPlayOptions_TrayNeedsNoWindow(t *testing.T) {
	tests := []struct {
		name    string
		opts    PlayOptions
		wantErr bool
	}{
		{"window only", PlayOptions{}, false},
		{"tray without window", PlayOptions{Tray: true, NoWindow: true}, false},
		{"tray with window", PlayOptions{Tray: true}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRunPlay_RejectsTrayWithWindow(t *testing.T) {
	// Rejected before any device, browser or store is opened.
	err := runPlay(context.Background(), PlayOptions{
		Tray:       true,
		Detector:   detectorMock,
		Dispatcher: dispatch.KindLog,
		PluginDir:  t.TempDir(),
		NoHistory:  true,
	})
	if !errors.Is(err, errTrayWithWindow) {
		t.Errorf("runPlay() error = %v, want errTrayWithWindow", err)
	}
}

func TestRunReplay_RecordedPoses(t *testing.T) {
	// A script in the format written by --record-poses.
	poses, err := testdata.LoadScenario("basic")
	if err != nil {
		t.Fatal(err)
	}

	var script bytes.Buffer
	for _, p := range poses {
		line, err := detector.EncodePose(p)
		if err != nil {
			t.Fatalf("EncodePose() error = %v", err)
		}
		script.Write(append(line, '\n'))
	}
	path := filepath.Join(t.TempDir(), "recorded.jsonl")
	os.WriteFile(path, script.Bytes(), 0644)

	var out bytes.Buffer
	if err := runReplay(&out, path, false); err != nil {
		t.Fatalf("runReplay() error = %v", err)
	}
	want := len(testdata.ExpectedActions("basic"))
	if !strings.Contains(out.String(), fmt.Sprintf("%d actions in %d frames", want, len(poses))) {
		t.Errorf("output = %s", out.String())
	}
}

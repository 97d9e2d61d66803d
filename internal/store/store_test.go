package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// newTestStore creates a Store backed by a file in a temporary directory.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "posesurf.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Fatal("database file should exist after creating store")
	}
	if s.Path() != dbPath {
		t.Errorf("Path() = %q, want %q", s.Path(), dbPath)
	}
}

func TestNewStore_RunsMigrations(t *testing.T) {
	s := newTestStore(t)

	for _, table := range []string{"sessions", "events"} {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q should exist after migrations: %v", table, err)
		}
	}

	for _, idx := range []string{"idx_events_session_id", "idx_sessions_started_at"} {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='index' AND name=?",
			idx,
		).Scan(&name)
		if err != nil {
			t.Errorf("index %q should exist after migrations: %v", idx, err)
		}
	}
}

func TestNewStore_ReopenKeepsData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	sess := &Session{Target: "https://example.com", Dispatcher: "log"}
	if err := s.Sessions().Create(sess); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	s.Close()

	s, err = New(dbPath)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer s.Close()

	if _, err := s.Sessions().GetByID(sess.ID); err != nil {
		t.Errorf("session lost after reopen: %v", err)
	}
}

func TestStore_Close(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	if err := s.Close(); err != nil {
		t.Errorf("close should not return error: %v", err)
	}

	if _, err := s.DB().Exec("SELECT 1"); err == nil {
		t.Error("DB operations should fail after close")
	}
}

func TestStore_ForeignKeysEnabled(t *testing.T) {
	s := newTestStore(t)

	var fkEnabled int
	if err := s.DB().QueryRow("PRAGMA foreign_keys").Scan(&fkEnabled); err != nil {
		t.Fatalf("failed to check foreign keys pragma: %v", err)
	}
	if fkEnabled != 1 {
		t.Error("foreign keys should be enabled")
	}

	err := s.Events().Create(&Event{SessionID: "missing", Action: "jump", Frame: 1})
	if err == nil {
		t.Error("event for an unknown session should be rejected")
	}
}

func TestSessionRepository_Lifecycle(t *testing.T) {
	s := newTestStore(t)
	repo := s.Sessions()

	sess := &Session{Target: "https://example.com/game", Dispatcher: "browser"}
	if err := repo.Create(sess); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if sess.ID == "" {
		t.Fatal("Create() should assign an ID")
	}
	if sess.StartedAt.IsZero() {
		t.Error("StartedAt should be set after create")
	}

	got, err := repo.GetByID(sess.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if !got.Running() {
		t.Error("new session should be running")
	}
	if got.Target != sess.Target || got.Dispatcher != sess.Dispatcher {
		t.Errorf("GetByID() = %+v, want target and dispatcher of %+v", got, sess)
	}

	if err := repo.Finish(sess.ID, 120, errors.New("camera unplugged")); err != nil {
		t.Fatalf("Finish() error = %v", err)
	}

	got, err = repo.GetByID(sess.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Running() {
		t.Error("finished session should not be running")
	}
	if got.Frames != 120 {
		t.Errorf("Frames = %d, want 120", got.Frames)
	}
	if got.Error != "camera unplugged" {
		t.Errorf("Error = %q, want %q", got.Error, "camera unplugged")
	}
	if got.Duration() < 0 {
		t.Errorf("Duration() = %v, want non-negative", got.Duration())
	}
}

func TestSessionRepository_NotFound(t *testing.T) {
	repo := newTestStore(t).Sessions()

	if _, err := repo.GetByID("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
	if err := repo.Finish("nope", 0, nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("Finish() error = %v, want ErrNotFound", err)
	}
	if err := repo.Delete("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}

func TestSessionRepository_List(t *testing.T) {
	repo := newTestStore(t).Sessions()

	var ids []string
	for i := 0; i < 3; i++ {
		sess := &Session{Target: "t", Dispatcher: "log"}
		if err := repo.Create(sess); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		ids = append(ids, sess.ID)
		time.Sleep(2 * time.Millisecond)
	}

	all, err := repo.List(0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("List(0) returned %d sessions, want 3", len(all))
	}
	if all[0].ID != ids[2] || all[2].ID != ids[0] {
		t.Errorf("List() should return newest first, got %s..%s", all[0].ID, all[2].ID)
	}

	limited, err := repo.List(2)
	if err != nil {
		t.Fatalf("List(2) error = %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("List(2) returned %d sessions, want 2", len(limited))
	}
}

func TestEventRepository(t *testing.T) {
	s := newTestStore(t)

	sess := &Session{Target: "t", Dispatcher: "log"}
	if err := s.Sessions().Create(sess); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	events := s.Events()
	for i, action := range []string{"left", "jump", "left", "slide"} {
		e := &Event{SessionID: sess.ID, Action: action, Frame: (i + 1) * 10}
		if err := events.Create(e); err != nil {
			t.Fatalf("Create(%s) error = %v", action, err)
		}
		if e.ID == 0 {
			t.Error("Create() should set the event ID")
		}
	}

	list, err := events.ListBySession(sess.ID)
	if err != nil {
		t.Fatalf("ListBySession() error = %v", err)
	}
	if len(list) != 4 {
		t.Fatalf("ListBySession() returned %d events, want 4", len(list))
	}
	if list[1].Action != "jump" || list[1].Frame != 20 {
		t.Errorf("second event = %+v, want jump at frame 20", list[1])
	}

	counts, err := events.CountBySession(sess.ID)
	if err != nil {
		t.Fatalf("CountBySession() error = %v", err)
	}
	want := map[string]int{"left": 2, "jump": 1, "slide": 1}
	for action, n := range want {
		if counts[action] != n {
			t.Errorf("counts[%s] = %d, want %d", action, counts[action], n)
		}
	}
	if _, ok := counts["right"]; ok {
		t.Error("right never fired and should not be counted")
	}

	if err := events.Create(&Event{SessionID: sess.ID, Action: "dance", Frame: 50}); err == nil {
		t.Error("unknown action should be rejected")
	}
}

func TestSessionRepository_DeleteCascadesEvents(t *testing.T) {
	s := newTestStore(t)

	sess := &Session{Target: "t", Dispatcher: "log"}
	if err := s.Sessions().Create(sess); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := s.Events().Create(&Event{SessionID: sess.ID, Action: "right", Frame: 1}); err != nil {
		t.Fatalf("Create event error = %v", err)
	}

	if err := s.Sessions().Delete(sess.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	list, err := s.Events().ListBySession(sess.ID)
	if err != nil {
		t.Fatalf("ListBySession() error = %v", err)
	}
	if len(list) != 0 {
		t.Errorf("events should be deleted with their session, got %d", len(list))
	}
}

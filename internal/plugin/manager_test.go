package plugin

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, root, dirName string, manifest Manifest) string {
	t.Helper()

	dir := filepath.Join(root, dirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create plugin dir: %v", err)
	}

	data, err := json.Marshal(manifest)
	if err != nil {
		t.Fatalf("failed to marshal manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), data, 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}

	return dir
}

func TestManager_Discover(t *testing.T) {
	root := t.TempDir()

	dir := writeManifest(t, root, "keyboard", Manifest{
		Name:        "keyboard",
		Version:     "1.0.0",
		Description: "Sends arrow keys",
		Executable:  "keyboard",
		Actions:     []string{"keystroke"},
	})

	manager := NewManager(root)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	plugins := manager.List()
	if len(plugins) != 1 {
		t.Fatalf("expected 1 plugin, got %d", len(plugins))
	}

	p := plugins[0]
	if p.Manifest.Name != "keyboard" {
		t.Errorf("expected plugin name 'keyboard', got %q", p.Manifest.Name)
	}
	if p.Path != dir {
		t.Errorf("expected path %q, got %q", dir, p.Path)
	}
	if p.Executable != filepath.Join(dir, "keyboard") {
		t.Errorf("unexpected executable path %q", p.Executable)
	}
}

func TestManager_Discover_SkipsInvalid(t *testing.T) {
	root := t.TempDir()

	writeManifest(t, root, "b-plugin", Manifest{Name: "b-plugin", Executable: "b"})
	writeManifest(t, root, "a-plugin", Manifest{Name: "a-plugin", Executable: "a"})
	writeManifest(t, root, "no-exec", Manifest{Name: "no-exec"})

	broken := filepath.Join(root, "broken")
	os.MkdirAll(broken, 0755)
	os.WriteFile(filepath.Join(broken, ManifestFile), []byte("{not json"), 0644)

	os.MkdirAll(filepath.Join(root, "no-manifest"), 0755)
	os.WriteFile(filepath.Join(root, "stray-file"), []byte("x"), 0644)

	manager := NewManager(root)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	plugins := manager.List()
	if len(plugins) != 2 {
		t.Fatalf("expected 2 plugins, got %d", len(plugins))
	}
	if plugins[0].Manifest.Name != "a-plugin" || plugins[1].Manifest.Name != "b-plugin" {
		t.Errorf("List() not sorted by name: %s, %s", plugins[0].Manifest.Name, plugins[1].Manifest.Name)
	}
}

func TestManager_Discover_MissingDir(t *testing.T) {
	manager := NewManager(filepath.Join(t.TempDir(), "does-not-exist"))

	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() on missing dir should not fail: %v", err)
	}
	if len(manager.List()) != 0 {
		t.Error("expected no plugins")
	}
}

func TestManager_Get(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "keyboard", Manifest{Name: "keyboard", Executable: "keyboard"})

	manager := NewManager(root)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	if _, err := manager.Get("keyboard"); err != nil {
		t.Errorf("Get(keyboard) error = %v", err)
	}
	if _, err := manager.Get("missing"); !errors.Is(err, ErrPluginNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrPluginNotFound", err)
	}
	if manager.PluginDir() != root {
		t.Errorf("PluginDir() = %q, want %q", manager.PluginDir(), root)
	}
}

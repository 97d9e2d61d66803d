// Package main provides the keyboard plugin: it presses a single named key
// in the focused window. macOS uses AppleScript key codes, Linux uses xdotool.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action  string          `json:"action"`
	Gesture string          `json:"gesture"`
	Params  json.RawMessage `json:"params"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// KeystrokeParams names the key to press.
type KeystrokeParams struct {
	Key string `json:"key"`
}

// namedKey holds the platform identifiers of one key.
type namedKey struct {
	macCode int    // AppleScript "key code"
	xdotool string // X keysym
}

var keys = map[string]namedKey{
	"up":     {126, "Up"},
	"down":   {125, "Down"},
	"left":   {123, "Left"},
	"right":  {124, "Right"},
	"space":  {49, "space"},
	"escape": {53, "Escape"},
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(fmt.Errorf("failed to decode request: %w", err))
		return
	}

	if req.Action != "keystroke" {
		writeResponse(fmt.Errorf("unknown action: %s", req.Action))
		return
	}

	writeResponse(handleKeystroke(req.Params))
}

func handleKeystroke(params json.RawMessage) error {
	var p KeystrokeParams
	if err := json.Unmarshal(params, &p); err != nil {
		return fmt.Errorf("failed to parse params: %w", err)
	}

	key, ok := keys[strings.ToLower(p.Key)]
	if !ok {
		return fmt.Errorf("unknown key: %q", p.Key)
	}

	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf(`tell application "System Events" to key code %d`, key.macCode)
		return run("osascript", "-e", script)
	case "linux":
		return run("xdotool", "key", key.xdotool)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}

func writeResponse(err error) {
	resp := Response{Success: err == nil}
	if err != nil {
		resp.Error = err.Error()
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

func run(name string, args ...string) error {
	output, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

// Package testdata holds recorded pose scripts shared by tests.
package testdata

import (
	"bytes"
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/ayusman/posesurf/internal/detector"
)

//go:embed scenarios/*.jsonl
var scenariosFS embed.FS

// Expected actions of each scenario, by action name.
var expected = map[string][]string{
	"basic":       {"left", "jump", "slide"},
	"all_actions": {"left", "jump", "slide", "right"},
	"no_rearm":    {"right"},
}

// Scenarios returns the names of the embedded scenarios.
func Scenarios() []string {
	entries, _ := scenariosFS.ReadDir("scenarios")

	var names []string
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".jsonl"))
	}
	sort.Strings(names)
	return names
}

// ScenarioBytes returns the raw script of a scenario.
func ScenarioBytes(name string) ([]byte, error) {
	data, err := scenariosFS.ReadFile(path.Join("scenarios", name+".jsonl"))
	if err != nil {
		return nil, fmt.Errorf("load scenario %s: %w", name, err)
	}
	return data, nil
}

// LoadScenario loads a scenario as one pose per frame.
func LoadScenario(name string) ([]*detector.PoseLandmarks, error) {
	data, err := ScenarioBytes(name)
	if err != nil {
		return nil, err
	}

	poses, err := detector.ReadScript(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", name, err)
	}
	return poses, nil
}

// ExpectedActions returns the action names a scenario fires, in order.
func ExpectedActions(name string) []string {
	return expected[name]
}

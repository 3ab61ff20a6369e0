// Package vmconfig is the interpreter's YAML-backed settings file,
// grounded on the teacher's internal/ext/config.go (ExtConfig, also
// yaml-backed) and internal/config/constants.go's named tunables.
package vmconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scheduler covers spec §4.8's cooperative-checkpoint interval.
type Scheduler struct {
	Tick int `yaml:"tick"`
}

// Stack covers the program stack's growth policy (spec §4.7 step 3 saves
// locals onto it across calls; it has no intrinsic bound in the spec, so
// Max is a resource-error guard rather than a spec requirement).
type Stack struct {
	Initial int `yaml:"initial"`
	Max     int `yaml:"max"`
}

// Frames bounds the call-stack depth (spec §7's KindResource: "a resource
// limit — recursion depth").
type Frames struct {
	Initial int `yaml:"initial"`
	Max     int `yaml:"max"`
}

// Trace gates the CLI's step/trace output (spec §9: "debugging UI beyond
// step/trace" is a Non-goal but step/trace itself is not).
type Trace struct {
	Enabled bool   `yaml:"enabled"`
	Color   string `yaml:"color"` // auto|always|never
}

// Config is the full settings tree; see SPEC_FULL.md's configuration
// reference for the on-disk shape.
type Config struct {
	Scheduler Scheduler `yaml:"scheduler"`
	Stack     Stack     `yaml:"stack"`
	Frames    Frames    `yaml:"frames"`
	Trace     Trace     `yaml:"trace"`
}

// Default returns the settings baked into the binary when no config file
// is given or the given one is silent on a key.
func Default() *Config {
	return &Config{
		Scheduler: Scheduler{Tick: 200},
		Stack:     Stack{Initial: 2048, Max: 1048576},
		Frames:    Frames{Initial: 1024, Max: 4096},
		Trace:     Trace{Enabled: false, Color: "auto"},
	}
}

// Load reads a YAML settings file, overlaying it onto Default() — a
// field the file omits keeps its default rather than zeroing out.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("vmconfig: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("vmconfig: parsing %s: %w", path, err)
	}
	return cfg, nil
}

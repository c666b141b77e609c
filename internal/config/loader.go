package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

var ErrNotFound = errors.New("scenario not found")

// Paths helper for default/scenario files.
type Paths struct {
	BaseDir string // base directory, e.g., /opt/dicesim/config
}

func (p Paths) DefaultPath() string {
	return filepath.Join(p.BaseDir, "default.yaml")
}

func (p Paths) ScenarioDir() string {
	return filepath.Join(p.BaseDir, "scenarios")
}

func (p Paths) ScenarioPath(name string) string {
	return filepath.Join(p.ScenarioDir(), name+".yaml")
}

// Loader reads YAML configs and merges default -> scenario.
type Loader struct {
	paths Paths

	mu    sync.RWMutex
	cache map[string]RawConfig // key: scenario name, "" for default only
}

// NewLoader creates a config loader with the given base directory.
func NewLoader(baseDir string) *Loader {
	return &Loader{
		paths: Paths{BaseDir: baseDir},
		cache: make(map[string]RawConfig),
	}
}

func (l *Loader) Paths() Paths { return l.paths }

// LoadMerged loads default.yaml and, if scenario is set, merges the scenario on top.
// A missing default file is an empty config; a missing scenario file is ErrNotFound.
func (l *Loader) LoadMerged(scenario string) (RawConfig, error) {
	if strings.ContainsAny(scenario, `/\`) || scenario == "." || scenario == ".." {
		return RawConfig{}, fmt.Errorf("%w: %q", ErrNotFound, scenario)
	}

	l.mu.RLock()
	if cfg, ok := l.cache[scenario]; ok {
		l.mu.RUnlock()
		return cfg, nil
	}
	l.mu.RUnlock()

	defCfg, _, err := readYAML(l.paths.DefaultPath())
	if err != nil {
		return RawConfig{}, fmt.Errorf("read default: %w", err)
	}
	merged := defCfg
	if scenario != "" {
		scCfg, found, err := readYAML(l.paths.ScenarioPath(scenario))
		if err != nil {
			return RawConfig{}, fmt.Errorf("read scenario %s: %w", scenario, err)
		}
		if !found {
			return RawConfig{}, fmt.Errorf("%w: %q", ErrNotFound, scenario)
		}
		merged = mergeRaw(defCfg, scCfg)
	}

	l.mu.Lock()
	l.cache[""] = defCfg
	l.cache[scenario] = merged
	l.mu.Unlock()

	return merged, nil
}

// Scenarios lists the scenario names found on disk, sorted.
func (l *Loader) Scenarios() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(l.paths.ScenarioDir(), "*.yaml"))
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, strings.TrimSuffix(filepath.Base(m), ".yaml"))
	}
	sort.Strings(out)
	return out, nil
}

// Invalidate clears loader's cache. Call after hot-reload detects changes.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = make(map[string]RawConfig)
}

// readYAML loads a YAML file into RawConfig. Missing files return zero cfg, found=false.
func readYAML(path string) (RawConfig, bool, error) {
	var cfg RawConfig
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return RawConfig{}, false, nil
		}
		return RawConfig{}, false, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return RawConfig{}, true, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return cfg, true, nil
}

// mergeRaw performs a deep merge: 'b' overrides 'a' where set.
// Slices and maps in 'b' replace those in 'a' when non-empty.
func mergeRaw(a, b RawConfig) RawConfig {
	out := a

	if b.Version != "" {
		out.Version = b.Version
	}
	if b.Notes != "" {
		out.Notes = b.Notes
	}

	// dice
	if b.Dice.Blanks != nil {
		out.Dice.Blanks = b.Dice.Blanks
	}
	if b.Dice.Crits != nil {
		out.Dice.Crits = b.Dice.Crits
	}
	if b.Dice.Policy != "" {
		out.Dice.Policy = b.Dice.Policy
	}
	if len(b.Dice.Colors) > 0 {
		colors := make(map[string][]int, len(a.Dice.Colors)+len(b.Dice.Colors))
		for k, v := range a.Dice.Colors {
			colors[k] = v
		}
		for k, v := range b.Dice.Colors {
			colors[k] = append([]int(nil), v...)
		}
		out.Dice.Colors = colors
	}

	// sim
	switch {
	case out.Sim == nil && b.Sim != nil:
		c := *b.Sim
		out.Sim = &c
	case out.Sim != nil && b.Sim != nil:
		c := *out.Sim
		if len(b.Sim.Colors) > 0 {
			c.Colors = append([]string(nil), b.Sim.Colors...)
		}
		if b.Sim.Trials != nil {
			c.Trials = b.Sim.Trials
		}
		if b.Sim.Rerolls != nil {
			c.Rerolls = b.Sim.Rerolls
		}
		if b.Sim.Seed != nil {
			c.Seed = b.Sim.Seed
		}
		if b.Sim.Workers != nil {
			c.Workers = b.Sim.Workers
		}
		out.Sim = &c
	}

	// sweep
	switch {
	case out.Sweep == nil && b.Sweep != nil:
		c := *b.Sweep
		out.Sweep = &c
	case out.Sweep != nil && b.Sweep != nil:
		c := *out.Sweep
		if b.Sweep.MaxDice != nil {
			c.MaxDice = b.Sweep.MaxDice
		}
		if b.Sweep.MaxRerolls != nil {
			c.MaxRerolls = b.Sweep.MaxRerolls
		}
		if b.Sweep.Trials != nil {
			c.Trials = b.Sweep.Trials
		}
		if len(b.Sweep.Colors) > 0 {
			c.Colors = append([]string(nil), b.Sweep.Colors...)
		}
		out.Sweep = &c
	}

	return out
}

// resolve.go
package config

import (
	"fmt"
	"sort"

	"github.com/xtding233/dicepool-sim/internal/dice"
)

// Overrides carries per-request values that win over the scenario files.
type Overrides struct {
	Colors     []string
	Rerolls    *int
	Trials     *int
	Blanks     *bool
	Crits      *bool
	Seed       *uint64
	Workers    *int
	MaxDice    *int
	MaxRerolls *int
}

type Resolver interface {
	// Returns merged RawConfig and normalized Params
	Resolve(scenario string, o Overrides) (RawConfig, Params, error)
}

var (
	_ Resolver = (*Loader)(nil)
	_ Resolver = Defaults{}
)

// Defaults resolves against built-in defaults only. Named scenarios are not found.
type Defaults struct{}

func (Defaults) Resolve(scenario string, o Overrides) (RawConfig, Params, error) {
	if scenario != "" {
		return RawConfig{}, Params{}, fmt.Errorf("scenario %q: %w", scenario, ErrNotFound)
	}
	p, err := ResolveRaw(RawConfig{}, o)
	return RawConfig{}, p, err
}

// Resolve merges default -> scenario -> overrides into engine params.
func (l *Loader) Resolve(scenario string, o Overrides) (RawConfig, Params, error) {
	raw, err := l.LoadMerged(scenario)
	if err != nil {
		return RawConfig{}, Params{}, err
	}
	p, err := ResolveRaw(raw, o)
	return raw, p, err
}

// ResolveRaw validates raw, applies overrides and defaults, and builds the registry.
func ResolveRaw(raw RawConfig, o Overrides) (Params, error) {
	if err := ValidateRaw(raw); err != nil {
		return Params{}, err
	}
	reg, err := Registry(raw)
	if err != nil {
		return Params{}, err
	}
	policy, _ := dice.ParsePolicy(raw.Dice.Policy)

	p := Params{Registry: reg, Policy: policy, Version: raw.Version}

	blanks := pick(o.Blanks, raw.Dice.Blanks, true)
	crits := pick(o.Crits, raw.Dice.Crits, true)

	var sc SimConfig
	if raw.Sim != nil {
		sc = *raw.Sim
	}
	colorNames := sc.Colors
	if len(o.Colors) > 0 {
		colorNames = o.Colors
	}
	colors, err := reg.ParseColors(colorNames)
	if err != nil {
		return Params{}, err
	}
	p.Trial.Colors = colors
	p.Trial.Blanks = blanks
	p.Trial.Crits = crits
	p.Trial.Trials = pick(o.Trials, sc.Trials, DefaultTrials)
	p.Trial.Rerolls = pick(o.Rerolls, sc.Rerolls, 0)
	p.Trial.Seed = pick(o.Seed, sc.Seed, 0)
	p.Trial.Workers = pick(o.Workers, sc.Workers, 0)

	var sw SweepConfig
	if raw.Sweep != nil {
		sw = *raw.Sweep
	}
	sweepColors, err := reg.ParseColors(sw.Colors)
	if err != nil {
		return Params{}, err
	}
	p.Sweep.Colors = sweepColors
	p.Sweep.MaxDice = pick(o.MaxDice, sw.MaxDice, 1)
	p.Sweep.MaxRerolls = pick(o.MaxRerolls, sw.MaxRerolls, 0)
	p.Sweep.Trials = pick(o.Trials, sw.Trials, DefaultSweepTrials)
	p.Sweep.Blanks = blanks
	p.Sweep.Crits = crits
	p.Sweep.Seed = p.Trial.Seed
	p.Sweep.Workers = p.Trial.Workers

	if p.Trial.Trials <= 0 || p.Trial.Rerolls < 0 || p.Trial.Workers < 0 {
		return Params{}, fmt.Errorf("%w: trials must be >= 1, rerolls and workers >= 0", ErrInvalidConfig)
	}
	if p.Sweep.MaxDice < 1 || p.Sweep.MaxRerolls < 0 {
		return Params{}, fmt.Errorf("%w: max dice must be >= 1, max rerolls >= 0", ErrInvalidConfig)
	}
	return p, nil
}

// Registry builds the color registry: built-in colors plus dice.colors.
func Registry(raw RawConfig) (*dice.Registry, error) {
	if len(raw.Dice.Colors) == 0 {
		return dice.DefaultRegistry(), nil
	}
	names := make([]string, 0, len(raw.Dice.Colors))
	for n := range raw.Dice.Colors {
		names = append(names, n)
	}
	sort.Strings(names)
	extra := make([]dice.Profile, 0, len(names))
	for _, n := range names {
		values := raw.Dice.Colors[n]
		if len(values) != dice.FacesPerDie {
			return nil, fmt.Errorf("%w: dice.colors.%s must have exactly %d faces", ErrInvalidConfig, n, dice.FacesPerDie)
		}
		var faces [dice.FacesPerDie]int
		copy(faces[:], values)
		prof, err := dice.NewProfile(dice.Color(n), faces)
		if err != nil {
			return nil, err
		}
		extra = append(extra, prof)
	}
	return dice.NewRegistry(extra...)
}

func pick[T any](override, configured *T, def T) T {
	if override != nil {
		return *override
	}
	if configured != nil {
		return *configured
	}
	return def
}

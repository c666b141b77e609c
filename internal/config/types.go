// types.go
package config

import (
	"github.com/xtding233/dicepool-sim/internal/dice"
	"github.com/xtding233/dicepool-sim/internal/sim"
	"github.com/xtding233/dicepool-sim/internal/sweep"
)

// Raw config loaded from YAML. Pointer fields distinguish "unset" from zero.
type RawConfig struct {
	Version string       `yaml:"version"`
	Dice    DiceConfig   `yaml:"dice"`
	Sim     *SimConfig   `yaml:"sim,omitempty"`
	Sweep   *SweepConfig `yaml:"sweep,omitempty"`
	Notes   string       `yaml:"notes,omitempty"`
}

type DiceConfig struct {
	Blanks *bool            `yaml:"blanks,omitempty"`
	Crits  *bool            `yaml:"crits,omitempty"`
	Policy string           `yaml:"policy,omitempty"` // only "blanks"
	Colors map[string][]int `yaml:"colors,omitempty"` // extra game colors: name -> 6 face values
}

type SimConfig struct {
	Colors  []string `yaml:"colors,omitempty"`
	Trials  *int     `yaml:"trials,omitempty"`
	Rerolls *int     `yaml:"rerolls,omitempty"`
	Seed    *uint64  `yaml:"seed,omitempty"`
	Workers *int     `yaml:"workers,omitempty"`
}

type SweepConfig struct {
	MaxDice    *int     `yaml:"max_dice,omitempty"`
	MaxRerolls *int     `yaml:"max_rerolls,omitempty"`
	Trials     *int     `yaml:"trials,omitempty"`
	Colors     []string `yaml:"colors,omitempty"` // empty: every game color
}

// Defaults applied when neither config nor overrides set a field.
const (
	DefaultTrials      = 10000
	DefaultSweepTrials = 100000
)

// Params is a resolved scenario, ready for the engine.
type Params struct {
	Registry *dice.Registry
	Policy   dice.Policy
	Trial    sim.TrialParams
	Sweep    sweep.Params
	Version  string // effective config version for tracing
}

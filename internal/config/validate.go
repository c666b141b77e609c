package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/xtding233/dicepool-sim/internal/dice"
)

var ErrInvalidConfig = errors.New("config validation failed")

// ValidateRaw checks semantic constraints of a RawConfig.
func ValidateRaw(cfg RawConfig) error {
	var errs []string

	// dice.policy
	if _, err := dice.ParsePolicy(cfg.Dice.Policy); err != nil {
		errs = append(errs, "dice.policy must be blanks")
	}

	// dice.colors
	known := make(map[string]bool)
	for _, c := range dice.DefaultRegistry().Colors() {
		known[string(c)] = true
	}
	names := make([]string, 0, len(cfg.Dice.Colors))
	for name := range cfg.Dice.Colors {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		values := cfg.Dice.Colors[name]
		switch {
		case name == "":
			errs = append(errs, "dice.colors has an empty color name")
		case known[name]:
			errs = append(errs, fmt.Sprintf("dice.colors.%s shadows a built-in color", name))
		case len(values) != dice.FacesPerDie:
			errs = append(errs, fmt.Sprintf("dice.colors.%s must have exactly %d faces", name, dice.FacesPerDie))
		}
		for i, v := range values {
			if v < 0 {
				errs = append(errs, fmt.Sprintf("dice.colors.%s[%d] must be >= 0", name, i))
			}
		}
	}
	defined := func(c string) bool {
		if known[c] {
			return true
		}
		_, ok := cfg.Dice.Colors[c]
		return ok
	}

	// sim
	if cfg.Sim != nil {
		for i, c := range cfg.Sim.Colors {
			if !defined(c) {
				errs = append(errs, fmt.Sprintf("sim.colors[%d] unknown color %q", i, c))
			}
		}
		if cfg.Sim.Trials != nil && *cfg.Sim.Trials <= 0 {
			errs = append(errs, "sim.trials must be >= 1")
		}
		if cfg.Sim.Rerolls != nil && *cfg.Sim.Rerolls < 0 {
			errs = append(errs, "sim.rerolls must be >= 0")
		}
		if cfg.Sim.Workers != nil && *cfg.Sim.Workers < 0 {
			errs = append(errs, "sim.workers must be >= 0 (0 means one per CPU)")
		}
	}

	// sweep
	if cfg.Sweep != nil {
		if cfg.Sweep.MaxDice != nil && *cfg.Sweep.MaxDice < 1 {
			errs = append(errs, "sweep.max_dice must be >= 1")
		}
		if cfg.Sweep.MaxRerolls != nil && *cfg.Sweep.MaxRerolls < 0 {
			errs = append(errs, "sweep.max_rerolls must be >= 0")
		}
		if cfg.Sweep.Trials != nil && *cfg.Sweep.Trials <= 0 {
			errs = append(errs, "sweep.trials must be >= 1")
		}
		for i, c := range cfg.Sweep.Colors {
			if !defined(c) {
				errs = append(errs, fmt.Sprintf("sweep.colors[%d] unknown color %q", i, c))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(errs, "; "))
	}
	return nil
}

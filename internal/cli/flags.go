package cli

import (
	"github.com/spf13/cobra"

	"github.com/xtding233/dicepool-sim/internal/config"
)

// handFlags are shared by roll and simulate. Only flags the user set override the config files.
type handFlags struct {
	colors  []string
	rerolls int
	blanks  bool
	crits   bool
	seed    uint64
}

func (h *handFlags) register(c *cobra.Command) {
	f := c.Flags()
	f.StringSliceVarP(&h.colors, "colors", "c", nil, "Dice colors, e.g. white,red,red (positional args also work)")
	f.IntVarP(&h.rerolls, "rerolls", "r", 0, "Reroll budget for blanks")
	f.BoolVar(&h.blanks, "blanks", true, "Enable blank faces")
	f.BoolVar(&h.crits, "crits", true, "Enable critical faces")
	f.Uint64Var(&h.seed, "seed", 0, "RNG seed; 0 uses a non-deterministic source")
}

func (h *handFlags) overrides(c *cobra.Command, args []string) config.Overrides {
	var o config.Overrides
	f := c.Flags()
	o.Colors = h.colors
	if len(args) > 0 {
		o.Colors = args
	}
	if f.Changed("rerolls") {
		o.Rerolls = &h.rerolls
	}
	if f.Changed("blanks") {
		o.Blanks = &h.blanks
	}
	if f.Changed("crits") {
		o.Crits = &h.crits
	}
	if f.Changed("seed") {
		o.Seed = &h.seed
	}
	return o
}

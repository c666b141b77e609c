package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xtding233/dicepool-sim/internal/config"
	"github.com/xtding233/dicepool-sim/internal/sweep"
)

func combosCmd(opts *rootOptions) *cobra.Command {
	var colors []string
	var countOnly bool

	c := &cobra.Command{
		Use:   "combos <dice>",
		Short: "List color combinations (with repetition) for a pool size",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 {
				return fmt.Errorf("dice must be a positive integer, got %q", args[0])
			}
			p, err := opts.resolve(config.Overrides{})
			if err != nil {
				return err
			}
			palette := p.Sweep.Colors
			if len(colors) > 0 {
				if palette, err = p.Registry.ParseColors(colors); err != nil {
					return err
				}
			}
			if len(palette) == 0 {
				palette = p.Registry.GameColors()
			}

			w := cmd.OutOrStdout()
			if countOnly {
				fmt.Fprintln(w, sweep.CountCombinations(n, len(palette)))
				return nil
			}
			for _, combo := range sweep.Combinations(palette, n) {
				names := make([]string, len(combo))
				for i, c := range combo {
					names[i] = string(c)
				}
				fmt.Fprintln(w, strings.Join(names, ","))
			}
			return nil
		},
	}
	c.Flags().StringSliceVarP(&colors, "colors", "c", nil, "Color palette (default: sweep colors, then the four game colors)")
	c.Flags().BoolVar(&countOnly, "count", false, "Print only the number of combinations")
	return c
}

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xtding233/dicepool-sim/internal/dice"
)

var errNoColors = errors.New("at least one color is required (--colors or positional args)")

func rollCmd(opts *rootOptions) *cobra.Command {
	var hf handFlags
	var format string

	c := &cobra.Command{
		Use:   "roll [colors...]",
		Short: "Deal and resolve a single hand",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.resolve(hf.overrides(cmd, args))
			if err != nil {
				return err
			}
			if len(p.Trial.Colors) == 0 {
				return errNoColors
			}
			rng := dice.DefaultRNG()
			if p.Trial.Seed != 0 {
				rng = dice.NewSeededRNG(p.Trial.Seed, 0)
			}
			h, err := dice.DealHand(p.Registry, p.Trial.Colors, p.Trial.Rerolls, p.Trial.Blanks, p.Trial.Crits, rng)
			if err != nil {
				return err
			}
			opts.logger.Debug("roll.hand", "hand", h.String(), "rerolled", h.Rerolled(), "chained", h.Chained())
			return printHand(cmd.OutOrStdout(), h, len(p.Trial.Colors), format)
		},
	}
	hf.register(c)
	c.Flags().StringVar(&format, "format", "pretty", "Output format: pretty|json")
	return c
}

type handJSON struct {
	Dice             []string `json:"dice"`
	Colors           []string `json:"colors"`
	Sum              int      `json:"sum"`
	Miss             bool     `json:"miss"`
	BlankCount       int      `json:"blank_count"`
	Rerolled         int      `json:"rerolled"`
	RerollsRemaining int      `json:"rerolls_remaining"`
	Chained          int      `json:"chained"`
}

func printHand(w io.Writer, h *dice.Hand, original int, format string) error {
	switch format {
	case "json":
		out := handJSON{
			Sum:              h.Sum(),
			Miss:             h.Miss(),
			BlankCount:       h.BlankCount(),
			Rerolled:         h.Rerolled(),
			RerollsRemaining: h.RerollsRemaining(),
			Chained:          h.Chained(),
		}
		for _, d := range h.Dice() {
			out.Dice = append(out.Dice, d.Face().String())
			out.Colors = append(out.Colors, string(d.Color()))
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case "pretty", "":
		t := newTheme(w)
		ds := h.Dice()
		parts := make([]string, len(ds))
		for i, d := range ds {
			parts[i] = t.die(d)
			if i == original-1 && len(ds) > original {
				parts[i] += t.Faint.Render(" |")
			}
		}
		miss := fmt.Sprintf("%t (%d blanks)", h.Miss(), h.BlankCount())
		if h.Miss() {
			miss = t.Miss.Render(miss)
		}
		fmt.Fprintf(w, "%s %s\n", t.Label.Render("Hand:    "), strings.Join(parts, " "))
		fmt.Fprintf(w, "%s %d\n", t.Label.Render("Sum:     "), h.Sum())
		fmt.Fprintf(w, "%s %s\n", t.Label.Render("Miss:    "), miss)
		fmt.Fprintf(w, "%s %d (%d left)\n", t.Label.Render("Rerolled:"), h.Rerolled(), h.RerollsRemaining())
		fmt.Fprintf(w, "%s %d\n", t.Label.Render("Chained: "), h.Chained())
		return nil
	default:
		return fmt.Errorf("unsupported format %q (expected pretty|json)", format)
	}
}

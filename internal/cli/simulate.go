package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/xtding233/dicepool-sim/internal/dice"
	"github.com/xtding233/dicepool-sim/internal/sim"
)

func simulateCmd(opts *rootOptions) *cobra.Command {
	var hf handFlags
	var trials, workers int
	var format string

	c := &cobra.Command{
		Use:   "simulate [colors...]",
		Short: "Estimate the outcome distribution of a hand",
		RunE: func(cmd *cobra.Command, args []string) error {
			o := hf.overrides(cmd, args)
			if cmd.Flags().Changed("trials") {
				o.Trials = &trials
			}
			if cmd.Flags().Changed("workers") {
				o.Workers = &workers
			}
			p, err := opts.resolve(o)
			if err != nil {
				return err
			}
			if len(p.Trial.Colors) == 0 {
				return errNoColors
			}

			opts.logger.Info("simulate.start", "colors", p.Trial.Colors, "trials", p.Trial.Trials, "rerolls", p.Trial.Rerolls)
			sample, err := sim.RunTrials(cmd.Context(), p.Registry, p.Trial)
			if err != nil {
				return err
			}
			dist, err := sim.Estimate(sample.Values())
			if err != nil {
				return err
			}
			return printSimulation(cmd.OutOrStdout(), p.Trial, sim.Summarize(sample), dist, format)
		},
	}
	hf.register(c)
	c.Flags().IntVarP(&trials, "trials", "n", 0, "Number of hands to sample")
	c.Flags().IntVar(&workers, "workers", 0, "Sampler goroutines; 0 uses GOMAXPROCS, or 8 for seeded runs")
	c.Flags().StringVar(&format, "format", "pretty", "Output format: pretty|json")
	return c
}

type simulationJSON struct {
	Colors       []dice.Color `json:"colors"`
	Rerolls      int          `json:"rerolls"`
	Trials       int          `json:"trials"`
	Seed         uint64       `json:"seed,omitempty"`
	Stats        sim.Stats    `json:"stats"`
	Distribution []sim.Point  `json:"distribution"`
}

func printSimulation(w io.Writer, p sim.TrialParams, st sim.Stats, dist sim.Distribution, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(simulationJSON{
			Colors:       p.Colors,
			Rerolls:      p.Rerolls,
			Trials:       p.Trials,
			Seed:         p.Seed,
			Stats:        st,
			Distribution: dist.Rows(),
		})
	case "pretty", "":
		t := newTheme(w)
		fmt.Fprintf(w, "%s %v  rerolls=%d  blanks=%t  crits=%t\n", t.Label.Render("Colors:"), p.Colors, p.Rerolls, p.Blanks, p.Crits)
		fmt.Fprintf(w, "%s %d\n", t.Label.Render("Trials:"), st.Trials)
		fmt.Fprintf(w, "%s %.4f  %s\n", t.Label.Render("Mean:  "), st.Mean, t.Faint.Render(fmt.Sprintf("(sd %.4f)", st.StdDev)))
		fmt.Fprintf(w, "%s %.0f / %.0f / %.0f\n", t.Label.Render("P50/P90/P99:"), st.P50, st.P90, st.P99)
		fmt.Fprintf(w, "%s %.4f\n\n", t.Label.Render("Miss:  "), st.MissRate)
		return printDistribution(w, dist)
	default:
		return fmt.Errorf("unsupported format %q (expected pretty|json)", format)
	}
}

func printDistribution(w io.Writer, dist sim.Distribution) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "value\tpdf\tP(>=value)\t")
	for _, r := range dist.Rows() {
		fmt.Fprintf(tw, "%d\t%.4f\t%.4f\t\n", r.Value, r.PDF, r.CCDF)
	}
	return tw.Flush()
}

package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xtding233/dicepool-sim/internal/config"
	"github.com/xtding233/dicepool-sim/internal/store"
	"github.com/xtding233/dicepool-sim/internal/sweep"
)

func sweepCmd(opts *rootOptions) *cobra.Command {
	var (
		dbPath     string
		colors     []string
		maxDice    int
		maxRerolls int
		trials     int
		workers    int
		seed       uint64
		quiet      bool
	)

	c := &cobra.Command{
		Use:   "sweep",
		Short: "Simulate every color combination and reroll budget and store the results",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := cmd.Flags()
			var o config.Overrides
			if f.Changed("max-dice") {
				o.MaxDice = &maxDice
			}
			if f.Changed("max-rerolls") {
				o.MaxRerolls = &maxRerolls
			}
			if f.Changed("trials") {
				o.Trials = &trials
			}
			if f.Changed("workers") {
				o.Workers = &workers
			}
			if f.Changed("seed") {
				o.Seed = &seed
			}
			p, err := opts.resolve(o)
			if err != nil {
				return err
			}
			params := p.Sweep
			if len(colors) > 0 {
				if params.Colors, err = p.Registry.ParseColors(colors); err != nil {
					return err
				}
			}

			ctx := cmd.Context()
			db, err := store.Open(dbPath)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := db.Migrate(ctx); err != nil {
				return err
			}

			run := &store.Run{
				Scenario:   opts.scenario,
				MaxDice:    params.MaxDice,
				MaxRerolls: params.MaxRerolls,
				Trials:     params.Trials,
				Seed:       params.Seed,
				Blanks:     params.Blanks,
				Crits:      params.Crits,
			}
			if err := db.CreateRun(ctx, run); err != nil {
				return err
			}
			palette := len(params.Colors)
			if palette == 0 {
				palette = len(p.Registry.GameColors())
			}
			opts.logger.Info("sweep.start", "run_id", run.ID, "cells", params.Cells(palette), "db", dbPath)

			w := cmd.OutOrStdout()
			dbSink := db.Sink(run.ID)
			sink := sweep.SinkFunc(func(ctx context.Context, r sweep.Result) error {
				if err := dbSink.SaveResult(ctx, r); err != nil {
					return err
				}
				if !quiet {
					fmt.Fprintf(w, "%-40s rerolls=%d  ev=%.4f  miss=%.4f\n",
						joinNames(r), r.Rerolls, r.ExpectedValue, r.MissRate)
				}
				return nil
			})

			runner := &sweep.Runner{Registry: p.Registry, Logger: opts.logger}
			cells, runErr := runner.Run(ctx, params, sink)

			status := store.StatusDone
			if runErr != nil {
				status = store.StatusFailed
			}
			// the command context may already be cancelled
			if err := db.FinishRun(context.WithoutCancel(ctx), run.ID, status, cells); err != nil {
				return err
			}
			if runErr != nil {
				return fmt.Errorf("sweep %s: %w", run.ID, runErr)
			}
			fmt.Fprintf(w, "run %s: %d cells\n", run.ID, cells)
			return nil
		},
	}

	fl := c.Flags()
	fl.StringVar(&dbPath, "db", "dicesim.db", "SQLite database path")
	fl.StringSliceVarP(&colors, "colors", "c", nil, "Color palette (default: sweep colors, then the four game colors)")
	fl.IntVar(&maxDice, "max-dice", 1, "Largest pool size")
	fl.IntVar(&maxRerolls, "max-rerolls", 0, "Largest reroll budget")
	fl.IntVarP(&trials, "trials", "n", 0, "Hands per cell")
	fl.IntVar(&workers, "workers", 0, "Sampler goroutines; 0 uses GOMAXPROCS, or 8 for seeded runs")
	fl.Uint64Var(&seed, "seed", 0, "RNG seed; 0 uses a non-deterministic source")
	fl.BoolVarP(&quiet, "quiet", "q", false, "Print only the run summary")
	return c
}

func joinNames(r sweep.Result) string {
	names := make([]string, len(r.Combination))
	for i, c := range r.Combination {
		names[i] = string(c)
	}
	return strings.Join(names, ",")
}

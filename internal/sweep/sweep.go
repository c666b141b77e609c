package sweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xtding233/dicepool-sim/internal/dice"
	"github.com/xtding233/dicepool-sim/internal/sim"
)

var ErrInvalidParams = errors.New("invalid sweep params")

// Params describes a full sweep: every combination of 1..MaxDice dice over
// Colors, each played with 0..MaxRerolls rerolls.
type Params struct {
	MaxDice    int
	MaxRerolls int
	Trials     int
	Colors     []dice.Color // empty means the registry's game colors
	Blanks     bool
	Crits      bool
	Seed       uint64
	Workers    int
}

// Result is the summary of one (combination, rerolls) cell.
type Result struct {
	Combination   []dice.Color
	DiceCount     int
	Rerolls       int
	ExpectedValue float64
	MissRate      float64
	Stats         sim.Stats
	Distribution  sim.Distribution
}

// Sink receives results as the sweep produces them.
type Sink interface {
	SaveResult(ctx context.Context, r Result) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, r Result) error

func (f SinkFunc) SaveResult(ctx context.Context, r Result) error { return f(ctx, r) }

// Runner drives the sampler over a sweep.
type Runner struct {
	Registry *dice.Registry
	Logger   *slog.Logger
}

// Cells is the number of (combination, rerolls) cells a sweep will produce.
func (p Params) Cells(colors int) int {
	total := 0
	for n := 1; n <= p.MaxDice; n++ {
		total += CountCombinations(n, colors)
	}
	return total * (p.MaxRerolls + 1)
}

func (p Params) validate() error {
	switch {
	case p.MaxDice < 1:
		return fmt.Errorf("%w: max dice must be >= 1", ErrInvalidParams)
	case p.MaxRerolls < 0:
		return fmt.Errorf("%w: max rerolls must be >= 0", ErrInvalidParams)
	case p.Trials < 1:
		return fmt.Errorf("%w: trials must be >= 1", ErrInvalidParams)
	}
	return nil
}

// Run plays every cell and hands each result to sink. It stops on the first error.
func (r *Runner) Run(ctx context.Context, p Params, sink Sink) (int, error) {
	if err := p.validate(); err != nil {
		return 0, err
	}
	reg := r.Registry
	if reg == nil {
		reg = dice.DefaultRegistry()
	}
	log := r.Logger
	if log == nil {
		log = slog.Default()
	}
	colors := p.Colors
	if len(colors) == 0 {
		colors = reg.GameColors()
	}
	if err := reg.Check(colors...); err != nil {
		return 0, err
	}

	done := 0
	started := time.Now()
	for n := 1; n <= p.MaxDice; n++ {
		combos := Combinations(colors, n)
		log.Info("sweep.dice_count", "dice", n, "combinations", len(combos))
		for rerolls := 0; rerolls <= p.MaxRerolls; rerolls++ {
			for _, combo := range combos {
				res, err := r.cell(ctx, reg, p, combo, rerolls, CellSeed(p.Seed, done))
				if err != nil {
					return done, fmt.Errorf("combination %v rerolls %d: %w", combo, rerolls, err)
				}
				if err := sink.SaveResult(ctx, res); err != nil {
					return done, fmt.Errorf("save result: %w", err)
				}
				done++
				log.Debug("sweep.cell",
					"combination", combo,
					"rerolls", rerolls,
					"expected_value", res.ExpectedValue,
					"miss_rate", res.MissRate,
				)
			}
		}
	}
	log.Info("sweep.done", "cells", done, "elapsed", time.Since(started).String())
	return done, nil
}

// CellSeed derives the seed of the index-th cell so cells draw from
// unrelated streams. Zero stays zero: unseeded sweeps use the crypto source.
func CellSeed(seed uint64, index int) uint64 {
	if seed == 0 {
		return 0
	}
	// splitmix64 finalizer
	z := seed + uint64(index+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	z ^= z >> 31
	if z == 0 {
		z = 1
	}
	return z
}

func (r *Runner) cell(ctx context.Context, reg *dice.Registry, p Params, combo []dice.Color, rerolls int, seed uint64) (Result, error) {
	sample, err := sim.RunTrials(ctx, reg, sim.TrialParams{
		Colors:  combo,
		Rerolls: rerolls,
		Trials:  p.Trials,
		Blanks:  p.Blanks,
		Crits:   p.Crits,
		Seed:    seed,
		Workers: p.Workers,
	})
	if err != nil {
		return Result{}, err
	}
	dist, err := sim.Estimate(sample.Values())
	if err != nil {
		return Result{}, err
	}
	st := sim.Summarize(sample)
	return Result{
		Combination:   combo,
		DiceCount:     len(combo),
		Rerolls:       rerolls,
		ExpectedValue: st.Mean,
		MissRate:      st.MissRate,
		Stats:         st,
		Distribution:  dist,
	}, nil
}

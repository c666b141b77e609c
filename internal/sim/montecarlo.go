package sim

import (
	"context"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/xtding233/dicepool-sim/internal/dice"
)

// TrialParams describes the hands played in one sampling run.
type TrialParams struct {
	Colors  []dice.Color
	Rerolls int
	Trials  int
	Blanks  bool
	Crits   bool

	// Seed != 0 makes the run reproducible for the same Seed and Workers.
	// Seed == 0 draws from the crypto source.
	Seed uint64
	// Workers <= 0 means GOMAXPROCS, or SeededWorkers when Seed != 0 so a
	// seeded run draws the same sample on any host.
	Workers int
}

// SeededWorkers is the worker count of a seeded run that leaves Workers unset.
const SeededWorkers = 8

// Record is the outcome of one simulated hand.
type Record = dice.Outcome

// Sample holds one record per trial, in trial order.
type Sample []Record

// Values returns the outcome values in trial order.
func (s Sample) Values() []int {
	out := make([]int, len(s))
	for i, r := range s {
		out[i] = r.Value
	}
	return out
}

// Stats summarizes a sample.
type Stats struct {
	Trials   int     `json:"trials"`
	Mean     float64 `json:"mean"`
	Var      float64 `json:"var"`
	StdDev   float64 `json:"std_dev"`
	P50      float64 `json:"p50"`
	P90      float64 `json:"p90"`
	P99      float64 `json:"p99"`
	MissRate float64 `json:"miss_rate"`
}

// Summarize computes mean/variance/percentiles of values and the miss rate.
// Missed hands count as value 0, the way the hand reports them.
func Summarize(s Sample) Stats {
	n := len(s)
	if n == 0 {
		return Stats{}
	}
	var sum float64
	missed := 0
	for _, r := range s {
		sum += float64(r.Value)
		if r.Missed {
			missed++
		}
	}
	mean := sum / float64(n)

	// variance (population)
	var acc float64
	for _, r := range s {
		d := float64(r.Value) - mean
		acc += d * d
	}
	variance := acc / float64(n)

	cp := s.Values()
	sort.Ints(cp)
	percentile := func(p float64) float64 {
		if n == 1 || p <= 0 {
			return float64(cp[0])
		}
		if p >= 1 {
			return float64(cp[n-1])
		}
		pos := p * float64(n-1)
		i := int(math.Floor(pos))
		f := pos - float64(i)
		if i+1 >= n {
			return float64(cp[i])
		}
		return float64(cp[i])*(1-f) + float64(cp[i+1])*f
	}

	return Stats{
		Trials:   n,
		Mean:     mean,
		Var:      variance,
		StdDev:   math.Sqrt(variance),
		P50:      percentile(0.50),
		P90:      percentile(0.90),
		P99:      percentile(0.99),
		MissRate: float64(missed) / float64(n),
	}
}

// RunTrials plays p.Trials independent hands and records each outcome.
// Trials are split into contiguous chunks, one per worker, and every worker
// owns its random source.
func RunTrials(ctx context.Context, reg *dice.Registry, p TrialParams) (Sample, error) {
	if reg == nil {
		reg = dice.DefaultRegistry()
	}
	// fail fast on bad colors before spawning anything
	if err := reg.Check(p.Colors...); err != nil {
		return nil, err
	}
	if p.Trials <= 0 {
		return Sample{}, nil
	}

	workers := p.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
		if p.Seed != 0 {
			workers = SeededWorkers
		}
	}
	if workers > p.Trials {
		workers = p.Trials
	}

	out := make(Sample, p.Trials)
	chunk := (p.Trials + workers - 1) / workers

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := min(start+chunk, p.Trials)
		if start >= end {
			break
		}
		rng := workerRNG(p.Seed, w)
		g.Go(func() error {
			return playChunk(ctx, reg, p, rng, out[start:end])
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// cancellation is checked every checkEvery hands
const checkEvery = 1024

func playChunk(ctx context.Context, reg *dice.Registry, p TrialParams, rng dice.RandomSource, dst Sample) error {
	for i := range dst {
		if i%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		h, err := dice.DealHand(reg, p.Colors, p.Rerolls, p.Blanks, p.Crits, rng)
		if err != nil {
			return err
		}
		dst[i] = h.Outcome()
	}
	return nil
}

func workerRNG(seed uint64, worker int) dice.RandomSource {
	if seed == 0 {
		return dice.DefaultRNG()
	}
	return dice.NewSeededRNG(seed, uint64(worker))
}

package sim_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/xtding233/dicepool-sim/internal/dice"
	"github.com/xtding233/dicepool-sim/internal/sim"
)

func TestRegularDiceSampler(t *testing.T) {
	s, err := sim.RunTrials(context.Background(), nil, sim.TrialParams{
		Colors: []dice.Color{dice.Regular, dice.Regular},
		Trials: 100000,
		Seed:   42,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(s) != 100000 {
		t.Fatalf("len=%d", len(s))
	}
	st := sim.Summarize(s)
	if diff := st.Mean - 7.0; diff > 0.05 || diff < -0.05 {
		t.Fatalf("mean=%f not close to 7.0", st.Mean)
	}
	if st.MissRate != 0 {
		t.Fatalf("miss rate=%f want 0", st.MissRate)
	}
}

func TestSeededRunIsReproducible(t *testing.T) {
	p := sim.TrialParams{
		Colors:  []dice.Color{dice.White, dice.Red, dice.Black},
		Rerolls: 1,
		Trials:  5000,
		Blanks:  true,
		Crits:   true,
		Seed:    99,
		Workers: 4,
	}
	a, err := sim.RunTrials(context.Background(), nil, p)
	if err != nil {
		t.Fatal(err)
	}
	b, err := sim.RunTrials(context.Background(), nil, p)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("trial %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestSeededRunIgnoresHostParallelism(t *testing.T) {
	p := sim.TrialParams{
		Colors: []dice.Color{dice.White, dice.Black},
		Trials: 3000,
		Blanks: true,
		Crits:  true,
		Seed:   17,
	}
	unset, err := sim.RunTrials(context.Background(), nil, p)
	if err != nil {
		t.Fatal(err)
	}
	p.Workers = sim.SeededWorkers
	fixed, err := sim.RunTrials(context.Background(), nil, p)
	if err != nil {
		t.Fatal(err)
	}
	for i := range unset {
		if unset[i] != fixed[i] {
			t.Fatalf("trial %d differs: %+v vs %+v", i, unset[i], fixed[i])
		}
	}
}

func TestSampleRecordsAreConsistent(t *testing.T) {
	s, err := sim.RunTrials(context.Background(), nil, sim.TrialParams{
		Colors: []dice.Color{dice.White, dice.White},
		Trials: 20000,
		Blanks: true,
		Crits:  true,
		Seed:   3,
	})
	if err != nil {
		t.Fatal(err)
	}
	missed := 0
	for i, r := range s {
		if r.Missed {
			missed++
			if r.Value != 0 {
				t.Fatalf("record %d missed with value %d", i, r.Value)
			}
		}
	}
	// two dice, no rerolls: both blank with probability 1/9
	rate := float64(missed) / float64(len(s))
	if math.Abs(rate-1.0/9) > 0.01 {
		t.Fatalf("miss rate=%f want ~%f", rate, 1.0/9)
	}
}

func TestRerollsLowerMissRate(t *testing.T) {
	run := func(rerolls int) float64 {
		s, err := sim.RunTrials(context.Background(), nil, sim.TrialParams{
			Colors:  []dice.Color{dice.Yellow, dice.Yellow, dice.Yellow},
			Rerolls: rerolls,
			Trials:  20000,
			Blanks:  true,
			Crits:   true,
			Seed:    11,
		})
		if err != nil {
			t.Fatal(err)
		}
		return sim.Summarize(s).MissRate
	}
	if r0, r2 := run(0), run(2); r2 >= r0 {
		t.Fatalf("rerolls should lower the miss rate: 0=>%f 2=>%f", r0, r2)
	}
}

func TestRunTrialsInvalidColor(t *testing.T) {
	_, err := sim.RunTrials(context.Background(), nil, sim.TrialParams{
		Colors: []dice.Color{"green"},
		Trials: 10,
	})
	if !errors.Is(err, dice.ErrInvalidColor) {
		t.Fatalf("want ErrInvalidColor; got %v", err)
	}
}

func TestRunTrialsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := sim.RunTrials(ctx, nil, sim.TrialParams{
		Colors: []dice.Color{dice.Black},
		Trials: 10000,
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled; got %v", err)
	}
}

func TestRunTrialsZero(t *testing.T) {
	s, err := sim.RunTrials(context.Background(), nil, sim.TrialParams{Colors: []dice.Color{dice.Red}})
	if err != nil || len(s) != 0 {
		t.Fatalf("len=%d err=%v", len(s), err)
	}
	if st := sim.Summarize(s); st.Trials != 0 {
		t.Fatalf("stats=%+v", st)
	}
}

func TestSummarizePercentiles(t *testing.T) {
	s := sim.Sample{{Value: 1}, {Value: 2}, {Value: 3}, {Value: 4}, {Value: 0, Missed: true}}
	st := sim.Summarize(s)
	if st.Mean != 2 || st.P50 != 2 || st.MissRate != 0.2 {
		t.Fatalf("stats=%+v", st)
	}
	if st.Var != 2 {
		t.Fatalf("var=%f want 2", st.Var)
	}
}

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xtding233/dicepool-sim/internal/store"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config-dir", t.TempDir()}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRollJSON(t *testing.T) {
	out, err := execute(t, "roll", "regular", "regular", "--seed", "4", "--format", "json")
	if err != nil {
		t.Fatal(err)
	}
	var h handJSON
	if err := json.Unmarshal([]byte(out), &h); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(h.Dice) != 2 || h.Miss || h.Sum < 2 || h.Sum > 12 {
		t.Fatalf("hand=%+v", h)
	}
	again, _ := execute(t, "roll", "--colors", "regular,regular", "--seed", "4", "--format", "json")
	if again != out {
		t.Fatalf("seeded rolls differ:\n%s\n%s", out, again)
	}
}

func TestRollPretty(t *testing.T) {
	out, err := execute(t, "roll", "white", "black", "--rerolls", "1")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Hand:", "Sum:", "Miss:", "Rerolled:", "Chained:"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestRollErrors(t *testing.T) {
	if _, err := execute(t, "roll"); err == nil {
		t.Fatalf("roll without colors must fail")
	}
	if _, err := execute(t, "roll", "purple"); err == nil {
		t.Fatalf("unknown color must fail")
	}
	if _, err := execute(t, "roll", "white", "--format", "xml"); err == nil {
		t.Fatalf("unknown format must fail")
	}
	if _, err := execute(t, "--log-level", "loud", "roll", "white"); err == nil {
		t.Fatalf("bad log level must fail")
	}
}

func TestSimulateJSON(t *testing.T) {
	out, err := execute(t, "simulate", "regular", "regular", "-n", "20000", "--seed", "3", "--format", "json")
	if err != nil {
		t.Fatal(err)
	}
	var got simulationJSON
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatal(err)
	}
	if got.Trials != 20000 || got.Stats.Mean < 6.9 || got.Stats.Mean > 7.1 {
		t.Fatalf("simulation=%+v", got.Stats)
	}
	if len(got.Distribution) != 13 {
		t.Fatalf("distribution rows=%d", len(got.Distribution))
	}
}

func TestSimulatePrettyTable(t *testing.T) {
	out, err := execute(t, "simulate", "white", "-n", "500", "--seed", "1")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "P(>=value)") || !strings.Contains(out, "Miss:") {
		t.Fatalf("output:\n%s", out)
	}
}

func TestCombos(t *testing.T) {
	out, err := execute(t, "combos", "3", "--count")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "20" {
		t.Fatalf("count=%q", out)
	}
	out, err = execute(t, "combos", "2", "-c", "white,red")
	if err != nil {
		t.Fatal(err)
	}
	if want := "white,white\nwhite,red\nred,red\n"; out != want {
		t.Fatalf("got %q want %q", out, want)
	}
	if _, err := execute(t, "combos", "zero"); err == nil {
		t.Fatalf("non-numeric dice must fail")
	}
}

func TestSweepPersists(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "sweep.db")
	out, err := execute(t, "sweep", "--db", dbPath, "-c", "white,red", "--max-dice", "2", "--max-rerolls", "1", "-n", "200", "--seed", "8", "-q")
	if err != nil {
		t.Fatal(err)
	}
	// 2 one-die + 3 two-die combinations, two reroll settings
	fields := strings.Fields(out)
	if len(fields) != 4 || fields[0] != "run" || fields[2] != "10" {
		t.Fatalf("output=%q", out)
	}
	runID := strings.TrimSuffix(fields[1], ":")

	if _, err := os.Stat(dbPath); err != nil {
		t.Fatal(err)
	}
	db, err := store.Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	ctx := context.Background()
	r, err := db.GetRun(ctx, runID)
	if err != nil {
		t.Fatal(err)
	}
	if r.Status != store.StatusDone || r.Cells != 10 || r.MaxDice != 2 || r.Seed != 8 {
		t.Fatalf("run=%+v", r)
	}
	results, err := db.ListResults(ctx, runID)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 10 {
		t.Fatalf("results=%d", len(results))
	}
}

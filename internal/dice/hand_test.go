package dice_test

import (
	"errors"
	"testing"

	"github.com/xtding233/dicepool-sim/internal/dice"
)

// scriptedRNG returns face indexes from a fixed script.
type scriptedRNG struct {
	t     *testing.T
	faces []int
}

func script(t *testing.T, faces ...int) *scriptedRNG {
	t.Helper()
	return &scriptedRNG{t: t, faces: faces}
}

func (s *scriptedRNG) IntN(n int) int {
	if len(s.faces) == 0 {
		s.t.Fatalf("scripted rng exhausted")
		return 0
	}
	f := s.faces[0]
	s.faces = s.faces[1:]
	if f >= n {
		s.t.Fatalf("scripted face %d out of range [0,%d)", f, n)
	}
	return f
}

func (s *scriptedRNG) Float64() float64 { return 0 }

func (s *scriptedRNG) left() int { return len(s.faces) }

func mustDice(t *testing.T, rng dice.RandomSource, blanks, crits bool, colors ...dice.Color) []*dice.Die {
	t.Helper()
	out := make([]*dice.Die, len(colors))
	for i, c := range colors {
		d, err := dice.NewDie(nil, c, blanks, crits, rng)
		if err != nil {
			t.Fatal(err)
		}
		out[i] = d
	}
	return out
}

func TestTwoBlanksWithoutRerollsMiss(t *testing.T) {
	rng := script(t, 0, 1)
	h, err := dice.NewHand(mustDice(t, rng, true, true, dice.White, dice.Black), 0, dice.PolicyBlanks)
	if err != nil {
		t.Fatal(err)
	}
	if !h.Miss() {
		t.Fatalf("two blanks must miss: %v", h)
	}
	if h.Sum() != 0 {
		t.Fatalf("sum on miss must be 0; got %d", h.Sum())
	}
	if got := h.Outcome(); !got.Missed || got.Value != 0 {
		t.Fatalf("outcome=%+v", got)
	}
}

func TestCritChainTerminates(t *testing.T) {
	// original crit, three chained crits, then a plain face
	rng := script(t, 5, 5, 5, 5, 2)
	h, err := dice.NewHand(mustDice(t, rng, true, true, dice.White), 0, dice.PolicyBlanks)
	if err != nil {
		t.Fatal(err)
	}
	if h.Chained() != 4 || h.Len() != 5 {
		t.Fatalf("want 4 chained dice (5 total); got chained=%d len=%d", h.Chained(), h.Len())
	}
	if rng.left() != 0 {
		t.Fatalf("unused script entries: %d", rng.left())
	}
	for i, d := range h.Dice()[1:] {
		if d.BlanksEnabled() || !d.CritsEnabled() {
			t.Fatalf("chained die %d has wrong flags", i)
		}
		if d.Color() != dice.White {
			t.Fatalf("chained die %d color=%s", i, d.Color())
		}
	}
	// 4 crit faces of value 2 and one face of value 1
	if h.Sum() != 9 {
		t.Fatalf("sum=%d want 9", h.Sum())
	}
}

func TestCritChainPerSnapshotDie(t *testing.T) {
	// two crits; first chain adds one crit then a plain face, second adds a plain face
	rng := script(t, 5, 5, 5, 3, 2)
	h, err := dice.NewHand(mustDice(t, rng, true, true, dice.Red, dice.Black), 0, dice.PolicyBlanks)
	if err != nil {
		t.Fatal(err)
	}
	if h.Chained() != 3 {
		t.Fatalf("chained=%d want 3", h.Chained())
	}
	faces := h.Faces()
	colors := []dice.Color{dice.Red, dice.Black, dice.Red, dice.Red, dice.Black}
	for i, d := range h.Dice() {
		if d.Color() != colors[i] {
			t.Fatalf("die %d color=%s want %s (faces %v)", i, d.Color(), colors[i], faces)
		}
	}
}

func TestChainedBlankDoesNotCount(t *testing.T) {
	// crit, blank, then the chained die lands on a blank face
	rng := script(t, 5, 0, 0)
	h, err := dice.NewHand(mustDice(t, rng, true, true, dice.Black, dice.White), 0, dice.PolicyBlanks)
	if err != nil {
		t.Fatal(err)
	}
	if h.Miss() {
		t.Fatalf("chained blank must not count toward a miss")
	}
	if h.BlankCount() != 1 {
		t.Fatalf("blank count=%d want 1", h.BlankCount())
	}
	if h.Sum() != 5 {
		t.Fatalf("sum=%d want 5", h.Sum())
	}
}

func TestRerollBudgetExhausted(t *testing.T) {
	rng := script(t, 0, 1, 0)
	h, err := dice.NewHand(mustDice(t, rng, true, true, dice.Yellow, dice.Yellow), 1, dice.PolicyBlanks)
	if err != nil {
		t.Fatal(err)
	}
	if h.Rerolled() > 1 {
		t.Fatalf("rerolled=%d want at most 1", h.Rerolled())
	}
	if h.RerollsRemaining() != 0 {
		t.Fatalf("rerolls remaining=%d want 0", h.RerollsRemaining())
	}
	if !h.Miss() {
		t.Fatalf("still two blanks, hand must miss")
	}
}

func TestRerollStopsWhenHandRecovers(t *testing.T) {
	// first blank rerolls onto face 3 (value 2 on yellow)
	rng := script(t, 0, 1, 3)
	h, err := dice.NewHand(mustDice(t, rng, true, true, dice.Yellow, dice.Yellow), 3, dice.PolicyBlanks)
	if err != nil {
		t.Fatal(err)
	}
	if h.Miss() {
		t.Fatalf("hand should recover after one reroll")
	}
	if h.Rerolled() != 1 || h.RerollsRemaining() != 2 {
		t.Fatalf("rerolled=%d remaining=%d", h.Rerolled(), h.RerollsRemaining())
	}
	if h.Sum() != 2 {
		t.Fatalf("sum=%d want 2", h.Sum())
	}
}

func TestRerollPicksFirstBlank(t *testing.T) {
	rng := script(t, 4, 1, 0, 2)
	ds := mustDice(t, rng, true, true, dice.Red, dice.Red, dice.Red)
	h, err := dice.NewHand(ds, 1, dice.PolicyBlanks)
	if err != nil {
		t.Fatal(err)
	}
	faces := h.Faces()
	if faces[1].Blank || !faces[2].Blank {
		t.Fatalf("first blank (index 1) should be rerolled: %v", faces)
	}
}

func TestRerollSkippedWithoutMiss(t *testing.T) {
	rng := script(t, 0, 3)
	h, err := dice.NewHand(mustDice(t, rng, true, true, dice.White, dice.White), 2, dice.PolicyBlanks)
	if err != nil {
		t.Fatal(err)
	}
	if h.Rerolled() != 0 || h.RerollsRemaining() != 2 {
		t.Fatalf("no reroll expected; rerolled=%d remaining=%d", h.Rerolled(), h.RerollsRemaining())
	}
}

func TestDisabledFlagsAreInert(t *testing.T) {
	rng := script(t, 0, 1, 5)
	h, err := dice.NewHand(mustDice(t, rng, false, false, dice.Black, dice.Black, dice.Black), 0, dice.PolicyBlanks)
	if err != nil {
		t.Fatal(err)
	}
	if h.Miss() || h.Chained() != 0 {
		t.Fatalf("disabled flags must not miss or chain: %v", h)
	}
	if h.Sum() != 5 {
		t.Fatalf("sum=%d want 5", h.Sum())
	}
}

func TestUnsupportedPolicy(t *testing.T) {
	rng := script(t, 0, 1)
	ds := mustDice(t, rng, true, true, dice.White, dice.White)
	before := []dice.Face{ds[0].Face(), ds[1].Face()}
	if _, err := dice.NewHand(ds, 1, dice.Policy(42)); !errors.Is(err, dice.ErrUnsupportedPolicy) {
		t.Fatalf("want ErrUnsupportedPolicy; got %v", err)
	}
	if ds[0].Face() != before[0] || ds[1].Face() != before[1] {
		t.Fatalf("dice must be untouched")
	}
	if _, err := dice.ParsePolicy("sixes"); !errors.Is(err, dice.ErrUnsupportedPolicy) {
		t.Fatalf("want ErrUnsupportedPolicy; got %v", err)
	}
	if p, err := dice.ParsePolicy("blanks"); err != nil || p != dice.PolicyBlanks {
		t.Fatalf("p=%v err=%v", p, err)
	}
}

func TestRegularDiceMean(t *testing.T) {
	const n = 100000
	rng := dice.NewSeededRNG(42, 0)
	colors := []dice.Color{dice.Regular, dice.Regular}
	sum := 0
	for i := 0; i < n; i++ {
		h, err := dice.DealHand(nil, colors, 0, false, false, rng)
		if err != nil {
			t.Fatal(err)
		}
		if h.Miss() {
			t.Fatalf("regular dice never miss")
		}
		sum += h.Sum()
	}
	mean := float64(sum) / n
	if diff := mean - 7.0; diff > 0.05 || diff < -0.05 {
		t.Fatalf("mean=%f not close to 7.0", mean)
	}
}

func TestDealHandInvalidColor(t *testing.T) {
	_, err := dice.DealHand(nil, []dice.Color{dice.White, "green"}, 0, true, true, nil)
	if !errors.Is(err, dice.ErrInvalidColor) {
		t.Fatalf("want ErrInvalidColor; got %v", err)
	}
}

package dice_test

import (
	"errors"
	"testing"

	"github.com/xtding233/dicepool-sim/internal/dice"
)

func TestBuiltinProfiles(t *testing.T) {
	reg := dice.DefaultRegistry()
	want := map[dice.Color][6]int{
		dice.White:  {0, 0, 1, 1, 2, 2},
		dice.Yellow: {0, 0, 1, 2, 3, 3},
		dice.Red:    {0, 0, 2, 3, 3, 4},
		dice.Black:  {0, 0, 3, 3, 4, 5},
	}
	for c, values := range want {
		p, err := reg.Profile(c)
		if err != nil {
			t.Fatal(err)
		}
		for i, f := range p.Faces {
			if f.Value != values[i] {
				t.Fatalf("%s face %d value=%d want %d", c, i, f.Value, values[i])
			}
			if f.Blank != (i < 2) {
				t.Fatalf("%s face %d blank=%v", c, i, f.Blank)
			}
			if f.Critical != (i == 5) {
				t.Fatalf("%s face %d critical=%v", c, i, f.Critical)
			}
		}
	}

	p, err := reg.Profile(dice.Regular)
	if err != nil {
		t.Fatal(err)
	}
	for i, f := range p.Faces {
		if f.Value != i+1 || f.Blank || f.Critical {
			t.Fatalf("regular face %d = %+v", i, f)
		}
	}
}

func TestUnknownColor(t *testing.T) {
	if _, err := dice.DefaultRegistry().Profile("green"); !errors.Is(err, dice.ErrInvalidColor) {
		t.Fatalf("want ErrInvalidColor; got %v", err)
	}
	if _, err := dice.NewDie(nil, "green", true, true, nil); !errors.Is(err, dice.ErrInvalidColor) {
		t.Fatalf("want ErrInvalidColor; got %v", err)
	}
	if _, err := dice.DefaultRegistry().ParseColors([]string{"white", "purple"}); !errors.Is(err, dice.ErrInvalidColor) {
		t.Fatalf("want ErrInvalidColor; got %v", err)
	}
}

func TestRegistryExtraColors(t *testing.T) {
	green, err := dice.NewProfile("green", [6]int{0, 0, 2, 2, 2, 6})
	if err != nil {
		t.Fatal(err)
	}
	reg, err := dice.NewRegistry(green)
	if err != nil {
		t.Fatal(err)
	}
	game := reg.GameColors()
	want := []dice.Color{dice.White, dice.Yellow, dice.Red, dice.Black, "green"}
	if len(game) != len(want) {
		t.Fatalf("game colors=%v", game)
	}
	for i := range want {
		if game[i] != want[i] {
			t.Fatalf("game colors=%v want %v", game, want)
		}
	}
	if len(reg.Colors()) != 6 {
		t.Fatalf("colors=%v", reg.Colors())
	}
	// default registry is not affected
	if _, err := dice.DefaultRegistry().Profile("green"); err == nil {
		t.Fatalf("default registry must stay unchanged")
	}

	dup, _ := dice.NewProfile(dice.White, [6]int{1, 1, 1, 1, 1, 1})
	if _, err := dice.NewRegistry(dup); !errors.Is(err, dice.ErrInvalidColor) {
		t.Fatalf("shadowing a built-in color must fail; got %v", err)
	}
	if _, err := dice.NewProfile("neg", [6]int{0, 0, -1, 1, 1, 1}); err == nil {
		t.Fatalf("negative face value must fail")
	}
}

func TestDieCopyDoesNotAlias(t *testing.T) {
	rng := script(t, 1, 4)
	d, err := dice.NewDie(nil, dice.Red, true, true, rng)
	if err != nil {
		t.Fatal(err)
	}
	c := d.Copy(false, true)
	if c == d {
		t.Fatalf("copy must be a new die")
	}
	if c.Color() != dice.Red || c.BlanksEnabled() || !c.CritsEnabled() {
		t.Fatalf("copy flags/color wrong: %v", c)
	}
	if d.Face().Value != 0 || c.Face().Value != 3 {
		t.Fatalf("faces d=%v c=%v", d.Face(), c.Face())
	}
	if !d.Blank() {
		t.Fatalf("original should still show its blank")
	}
}

func TestBlankFaceWithBlanksDisabled(t *testing.T) {
	rng := script(t, 0)
	d, err := dice.NewDie(nil, dice.White, false, true, rng)
	if err != nil {
		t.Fatal(err)
	}
	if !d.Face().Blank {
		t.Fatalf("face flag should still be set")
	}
	if d.Blank() {
		t.Fatalf("blank must be inert when blanks are disabled")
	}
}

func TestRollIsUniform(t *testing.T) {
	const n = 60000
	rng := dice.NewSeededRNG(7, 0)
	d, err := dice.NewDie(nil, dice.Regular, false, false, rng)
	if err != nil {
		t.Fatal(err)
	}
	counts := make(map[int]int)
	for i := 0; i < n; i++ {
		d.Roll()
		counts[d.Value()]++
	}
	for v := 1; v <= 6; v++ {
		freq := float64(counts[v]) / n
		if diff := freq - 1.0/6; diff > 0.01 || diff < -0.01 {
			t.Fatalf("value %d freq=%f", v, freq)
		}
	}
}

func TestFaceString(t *testing.T) {
	cases := map[dice.Face]string{
		{Value: 0, Blank: true}:    "0-",
		{Value: 5, Critical: true}: "5*",
		{Value: 3}:                 "3",
	}
	for f, want := range cases {
		if got := f.String(); got != want {
			t.Fatalf("%+v => %q want %q", f, got, want)
		}
	}
}

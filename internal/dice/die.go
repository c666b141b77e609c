package dice

import "fmt"

// Die is one rolled die. Blank and critical flags on its faces only count
// when the matching enablement flag is set on the die.
type Die struct {
	profile *Profile
	blanks  bool
	crits   bool
	face    int
	rng     RandomSource
}

// NewDie creates a die of the given color and rolls it.
// A nil rng falls back to DefaultRNG.
func NewDie(reg *Registry, color Color, blanks, crits bool, rng RandomSource) (*Die, error) {
	if reg == nil {
		reg = DefaultRegistry()
	}
	p, err := reg.Profile(color)
	if err != nil {
		return nil, err
	}
	if rng == nil {
		rng = DefaultRNG()
	}
	d := &Die{profile: &p, blanks: blanks, crits: crits, rng: rng}
	d.Roll()
	return d, nil
}

// Roll picks a new face uniformly at random, regardless of enablement flags.
func (d *Die) Roll() {
	d.face = d.rng.IntN(FacesPerDie)
}

// Copy returns a fresh, rolled die of the same color with the given flags.
func (d *Die) Copy(blanks, crits bool) *Die {
	c := &Die{profile: d.profile, blanks: blanks, crits: crits, rng: d.rng}
	c.Roll()
	return c
}

func (d *Die) Color() Color { return d.profile.Color }

// Face is the face currently up.
func (d *Die) Face() Face { return d.profile.Faces[d.face] }

func (d *Die) Value() int { return d.Face().Value }

// Blank reports a blank face up on a die whose blanks are enabled.
func (d *Die) Blank() bool { return d.blanks && d.Face().Blank }

// Critical reports a critical face up on a die whose crits are enabled.
func (d *Die) Critical() bool { return d.crits && d.Face().Critical }

func (d *Die) BlanksEnabled() bool { return d.blanks }

func (d *Die) CritsEnabled() bool { return d.crits }

func (d *Die) String() string {
	return fmt.Sprintf("%s die with %s up", d.profile.Color, d.Face())
}

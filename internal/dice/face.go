package dice

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
)

// FacesPerDie is the number of faces on every die.
const FacesPerDie = 6

// Positional convention shared by every game color.
var (
	blankFaces    = [FacesPerDie]bool{true, true, false, false, false, false}
	criticalFaces = [FacesPerDie]bool{false, false, false, false, false, true}
)

var ErrInvalidColor = errors.New("invalid die color")

// Face is one side of a die.
type Face struct {
	Value    int  `json:"value"`
	Blank    bool `json:"blank"`
	Critical bool `json:"critical"`
}

func (f Face) String() string {
	s := strconv.Itoa(f.Value)
	if f.Blank {
		s += "-"
	}
	if f.Critical {
		s += "*"
	}
	return s
}

// Color identifies a die profile.
type Color string

const (
	White   Color = "white"
	Yellow  Color = "yellow"
	Red     Color = "red"
	Black   Color = "black"
	Regular Color = "regular" // plain 1..6, no blanks or crits; used to check the sampler
)

// gameColorOrder is the canonical ordering used by combination sweeps.
var gameColorOrder = []Color{White, Yellow, Red, Black}

// Profile is the fixed, ordered set of faces for one color.
type Profile struct {
	Color Color
	Faces [FacesPerDie]Face
}

// NewProfile builds a game profile from six face values: faces 0-1 are blank, face 5 is critical.
func NewProfile(color Color, values [FacesPerDie]int) (Profile, error) {
	if color == "" {
		return Profile{}, fmt.Errorf("%w: empty name", ErrInvalidColor)
	}
	p := Profile{Color: color}
	for i, v := range values {
		if v < 0 {
			return Profile{}, fmt.Errorf("%w: %q face %d has negative value %d", ErrInvalidColor, color, i, v)
		}
		p.Faces[i] = Face{Value: v, Blank: blankFaces[i], Critical: criticalFaces[i]}
	}
	return p, nil
}

// numbersOnly builds a profile without blank or critical faces.
func numbersOnly(color Color, values [FacesPerDie]int) Profile {
	p := Profile{Color: color}
	for i, v := range values {
		p.Faces[i] = Face{Value: v}
	}
	return p
}

// Registry is an immutable color -> profile table. Build it once and share it.
type Registry struct {
	profiles map[Color]Profile
	game     []Color
}

// NewRegistry returns the built-in profiles plus any extra game colors.
// Extra colors may not shadow a built-in color.
func NewRegistry(extra ...Profile) (*Registry, error) {
	r := &Registry{profiles: make(map[Color]Profile, 5+len(extra))}
	for _, p := range builtinProfiles() {
		r.profiles[p.Color] = p
	}
	r.game = append(r.game, gameColorOrder...)

	var added []Color
	for _, p := range extra {
		if _, exists := r.profiles[p.Color]; exists {
			return nil, fmt.Errorf("%w: %q already defined", ErrInvalidColor, p.Color)
		}
		for _, f := range p.Faces {
			if f.Blank && f.Critical {
				return nil, fmt.Errorf("%w: %q has a face that is both blank and critical", ErrInvalidColor, p.Color)
			}
		}
		r.profiles[p.Color] = p
		added = append(added, p.Color)
	}
	sort.Slice(added, func(i, j int) bool { return added[i] < added[j] })
	r.game = append(r.game, added...)
	return r, nil
}

func builtinProfiles() []Profile {
	mk := func(c Color, v [FacesPerDie]int) Profile {
		p, _ := NewProfile(c, v)
		return p
	}
	return []Profile{
		numbersOnly(Regular, [FacesPerDie]int{1, 2, 3, 4, 5, 6}),
		mk(White, [FacesPerDie]int{0, 0, 1, 1, 2, 2}),
		mk(Yellow, [FacesPerDie]int{0, 0, 1, 2, 3, 3}),
		mk(Red, [FacesPerDie]int{0, 0, 2, 3, 3, 4}),
		mk(Black, [FacesPerDie]int{0, 0, 3, 3, 4, 5}),
	}
}

var defaultRegistry, _ = NewRegistry()

// DefaultRegistry holds only the built-in colors.
func DefaultRegistry() *Registry { return defaultRegistry }

// Profile looks up a color.
func (r *Registry) Profile(c Color) (Profile, error) {
	p, ok := r.profiles[c]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrInvalidColor, c)
	}
	return p, nil
}

// Colors lists every registered color sorted by name.
func (r *Registry) Colors() []Color {
	out := make([]Color, 0, len(r.profiles))
	for c := range r.profiles {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// GameColors lists the colors that take part in combination sweeps.
func (r *Registry) GameColors() []Color {
	return append([]Color(nil), r.game...)
}

// ParseColors converts names to colors, checking each against the registry.
func (r *Registry) ParseColors(names []string) ([]Color, error) {
	out := make([]Color, len(names))
	for i, n := range names {
		c := Color(n)
		if _, err := r.Profile(c); err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

// Check fails with ErrInvalidColor on the first unknown color.
func (r *Registry) Check(colors ...Color) error {
	for _, c := range colors {
		if _, err := r.Profile(c); err != nil {
			return err
		}
	}
	return nil
}

package dice

import (
	"errors"
	"fmt"
	"strings"
)

// CriticalBlanks is the number of counted blanks that turns a hand into a miss.
const CriticalBlanks = 2

var ErrUnsupportedPolicy = errors.New("unsupported reroll policy")

// Policy selects which dice a hand spends its rerolls on.
type Policy int

const (
	policyUnknown Policy = iota
	// PolicyBlanks rerolls blank dice while the hand is a miss.
	PolicyBlanks
)

func (p Policy) String() string {
	switch p {
	case PolicyBlanks:
		return "blanks"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy maps the string form of a policy. The empty string means blanks.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "blanks":
		return PolicyBlanks, nil
	default:
		return policyUnknown, fmt.Errorf("%w: %q", ErrUnsupportedPolicy, s)
	}
}

// Outcome is the scalar result of one resolved hand.
type Outcome struct {
	Value  int  `json:"value"`
	Missed bool `json:"missed"`
}

// Hand owns its dice and resolves them once, at construction:
//  1. reroll: while the hand misses and rerolls remain, reroll the first
//     counted blank; stop as soon as the hand no longer misses.
//  2. criticals: every die showing a counted critical spawns a chained die
//     (blanks off, crits on); a chained die showing a critical spawns another.
type Hand struct {
	dice     []*Die
	rerolls  int
	policy   Policy
	rerolled int
	chained  int
}

// NewHand takes ownership of dice and resolves the hand.
// Negative rerolls are treated as zero.
func NewHand(dice []*Die, rerolls int, policy Policy) (*Hand, error) {
	if policy != PolicyBlanks {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPolicy, policy)
	}
	if rerolls < 0 {
		rerolls = 0
	}
	h := &Hand{dice: dice, rerolls: rerolls, policy: policy}
	h.reroll()
	h.resolveCrits()
	return h, nil
}

func (h *Hand) reroll() {
	for h.rerolls > 0 && h.Miss() {
		d := h.firstBlank()
		if d == nil {
			return
		}
		d.Roll()
		h.rerolls--
		h.rerolled++
	}
}

func (h *Hand) firstBlank() *Die {
	for _, d := range h.dice {
		if d.Blank() {
			return d
		}
	}
	return nil
}

func (h *Hand) resolveCrits() {
	// dice appended below are reached through their chain, not the snapshot
	snapshot := h.dice[:len(h.dice):len(h.dice)]
	for _, d := range snapshot {
		for src := d; src.Critical(); {
			src = src.Copy(false, true)
			h.dice = append(h.dice, src)
			h.chained++
		}
	}
}

// BlankCount counts blanks on dice with blanks enabled.
func (h *Hand) BlankCount() int {
	n := 0
	for _, d := range h.dice {
		if d.Blank() {
			n++
		}
	}
	return n
}

// Miss reports whether the hand has CriticalBlanks or more counted blanks.
func (h *Hand) Miss() bool {
	return h.BlankCount() >= CriticalBlanks
}

// Sum is the total face value of every die, or 0 on a miss.
func (h *Hand) Sum() int {
	if h.Miss() {
		return 0
	}
	total := 0
	for _, d := range h.dice {
		total += d.Value()
	}
	return total
}

func (h *Hand) Outcome() Outcome {
	return Outcome{Value: h.Sum(), Missed: h.Miss()}
}

func (h *Hand) Policy() Policy { return h.policy }

func (h *Hand) RerollsRemaining() int { return h.rerolls }

// Rerolled is the number of rerolls spent.
func (h *Hand) Rerolled() int { return h.rerolled }

// Chained is the number of dice added by critical chains.
func (h *Hand) Chained() int { return h.chained }

func (h *Hand) Len() int { return len(h.dice) }

// Faces returns the faces of every die, chained dice last.
func (h *Hand) Faces() []Face {
	out := make([]Face, len(h.dice))
	for i, d := range h.dice {
		out[i] = d.Face()
	}
	return out
}

// Dice returns a copy of the die slice; the dice themselves are shared.
func (h *Hand) Dice() []*Die {
	return append([]*Die(nil), h.dice...)
}

func (h *Hand) String() string {
	parts := make([]string, len(h.dice))
	for i, d := range h.dice {
		parts[i] = d.String()
	}
	return fmt.Sprintf("Hand([%s], rerolls=%d)", strings.Join(parts, ", "), h.rerolls)
}

// DealHand rolls one die per color with shared flags and resolves them with the blanks policy.
func DealHand(reg *Registry, colors []Color, rerolls int, blanks, crits bool, rng RandomSource) (*Hand, error) {
	dice := make([]*Die, 0, len(colors))
	for _, c := range colors {
		d, err := NewDie(reg, c, blanks, crits, rng)
		if err != nil {
			return nil, err
		}
		dice = append(dice, d)
	}
	return NewHand(dice, rerolls, PolicyBlanks)
}

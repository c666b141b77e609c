package sim

import (
	"errors"
	"fmt"
)

var (
	ErrEmptySample     = errors.New("empty sample")
	ErrNegativeOutcome = errors.New("negative outcome value")
)

// Distribution is the empirical PMF and the "greater than or equal" CCDF,
// both indexed by outcome value 0..max.
type Distribution struct {
	PDF  []float64 `json:"pdf"`
	CCDF []float64 `json:"ccdf"`
}

// Point is one row of a distribution table.
type Point struct {
	Value int     `json:"value"`
	PDF   float64 `json:"pdf"`
	CCDF  float64 `json:"ccdf"`
}

// Estimate builds the distribution of values over [0, max(values)].
func Estimate(values []int) (Distribution, error) {
	if len(values) == 0 {
		return Distribution{}, ErrEmptySample
	}
	hi := 0
	for _, v := range values {
		if v < 0 {
			return Distribution{}, fmt.Errorf("%w: %d", ErrNegativeOutcome, v)
		}
		hi = max(hi, v)
	}

	counts := make([]int, hi+1)
	for _, v := range values {
		counts[v]++
	}

	n := float64(len(values))
	d := Distribution{
		PDF:  make([]float64, hi+1),
		CCDF: make([]float64, hi+1),
	}
	// suffix sums of counts keep ccdf[0] exactly 1
	tail := 0
	for v := hi; v >= 0; v-- {
		tail += counts[v]
		d.PDF[v] = float64(counts[v]) / n
		d.CCDF[v] = float64(tail) / n
	}
	return d, nil
}

// Len is the number of outcome values covered, max+1.
func (d Distribution) Len() int { return len(d.PDF) }

// Rows returns the distribution as a value-ordered table.
func (d Distribution) Rows() []Point {
	out := make([]Point, len(d.PDF))
	for v := range d.PDF {
		out[v] = Point{Value: v, PDF: d.PDF[v], CCDF: d.CCDF[v]}
	}
	return out
}

// AtLeast is the probability of an outcome >= v.
func (d Distribution) AtLeast(v int) float64 {
	if v <= 0 {
		if len(d.CCDF) == 0 {
			return 0
		}
		return d.CCDF[0]
	}
	if v >= len(d.CCDF) {
		return 0
	}
	return d.CCDF[v]
}

// FromRows rebuilds a distribution from a stored table. Rows may be in any order.
func FromRows(rows []Point) Distribution {
	hi := -1
	for _, r := range rows {
		hi = max(hi, r.Value)
	}
	d := Distribution{PDF: make([]float64, hi+1), CCDF: make([]float64, hi+1)}
	for _, r := range rows {
		if r.Value < 0 {
			continue
		}
		d.PDF[r.Value] = r.PDF
		d.CCDF[r.Value] = r.CCDF
	}
	return d
}

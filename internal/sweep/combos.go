package sweep

import "github.com/xtding233/dicepool-sim/internal/dice"

// CountCombinations is the number of multisets of size n drawn from k colors, C(n+k-1, k-1).
func CountCombinations(n, k int) int {
	if n < 0 || k <= 0 {
		return 0
	}
	r := k - 1
	total := 1
	for i := 1; i <= r; i++ {
		// exact at every step: total is C(n+i-1, i-1) before this multiply
		total = total * (n + i) / i
	}
	return total
}

// Combinations lists every multiset of n colors as a non-decreasing tuple
// over the order of colors, in lexicographic order.
func Combinations(colors []dice.Color, n int) [][]dice.Color {
	if n < 0 || (len(colors) == 0 && n > 0) {
		return nil
	}
	out := make([][]dice.Color, 0, CountCombinations(n, len(colors)))
	idx := make([]int, n)
	for {
		combo := make([]dice.Color, n)
		for i, j := range idx {
			combo[i] = colors[j]
		}
		out = append(out, combo)

		// advance the rightmost index that can still grow
		i := n - 1
		for i >= 0 && idx[i] == len(colors)-1 {
			i--
		}
		if i < 0 {
			return out
		}
		idx[i]++
		for j := i + 1; j < n; j++ {
			idx[j] = idx[i]
		}
	}
}

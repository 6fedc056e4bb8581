package search

import "math"

// Results is an R² table in grid order.
type Results []Result

// Lookup returns the result for a variant key.
func (rs Results) Lookup(key string) (Result, bool) {
	for _, r := range rs {
		if r.Variant.Key() == key {
			return r, true
		}
	}
	return Result{}, false
}

// Filter returns the results for which keep is true, in order.
func (rs Results) Filter(keep func(Result) bool) Results {
	var out Results
	for _, r := range rs {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// Best returns the first usable result with the highest R².
func (rs Results) Best() (Result, bool) {
	best, found := Result{R2: math.Inf(-1)}, false
	for _, r := range rs {
		if r.Usable() && r.R2 > best.R2 {
			best, found = r, true
		}
	}
	return best, found
}

// Table2D arranges forest results as R²[trees index][min-leaf index].
// Missing cells are NaN.
func (rs Results) Table2D(trees, minLeaf []int) [][]float64 {
	ti := make(map[int]int, len(trees))
	for i, t := range trees {
		ti[t] = i
	}
	li := make(map[int]int, len(minLeaf))
	for j, l := range minLeaf {
		li[l] = j
	}

	table := make([][]float64, len(trees))
	for i := range table {
		table[i] = make([]float64, len(minLeaf))
		for j := range table[i] {
			table[i][j] = math.NaN()
		}
	}
	for _, r := range rs {
		i, okT := ti[r.Variant.Trees]
		j, okL := li[r.Variant.MinLeaf]
		if r.Variant.Family == RandomForest && okT && okL {
			table[i][j] = r.R2
		}
	}
	return table
}

// Package rank implements the nonparametric rank-based tests the analyses
// lean on when group sizes are small and distributions are nowhere near
// normal: Mann-Whitney U and Kruskal-Wallis H, both with tie-averaged ranks.
package rank

import (
	"math"
	"sort"

	"gopersist/adapters/stats/special"
)

// pValueFloor keeps "very unlikely" from being reported as "impossible".
const pValueFloor = 1e-10

// Ranks converts values to ranks, tied values receiving the average of
// their tied rank positions.
func Ranks(data []float64) []float64 {
	n := len(data)
	ranks := make([]float64, n)
	if n == 0 {
		return ranks
	}

	type pair struct {
		value float64
		index int
	}
	pairs := make([]pair, n)
	for i, v := range data {
		pairs[i] = pair{v, i}
	}
	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].value < pairs[j].value
	})

	i := 0
	for i < n {
		j := i
		for j < n-1 && pairs[j+1].value == pairs[i].value {
			j++
		}
		avgRank := float64(i+j)/2.0 + 1
		for k := i; k <= j; k++ {
			ranks[pairs[k].index] = avgRank
		}
		i = j + 1
	}
	return ranks
}

// MannWhitneyUResult carries the full Mann-Whitney output; most callers only
// read PValue.
type MannWhitneyUResult struct {
	U      float64 `json:"u"`
	Z      float64 `json:"z"`
	PValue float64 `json:"p_value"`
}

// MannWhitneyU runs the two-sided rank-sum test over two samples using the
// normal approximation. Empty groups and zero-spread pools return p = 1,
// never an error, so batch aggregates treat them as uninformative.
func MannWhitneyU(a, b []float64) MannWhitneyUResult {
	n1, n2 := float64(len(a)), float64(len(b))
	if n1 == 0 || n2 == 0 {
		return MannWhitneyUResult{PValue: 1}
	}

	pooled := make([]float64, 0, len(a)+len(b))
	pooled = append(pooled, a...)
	pooled = append(pooled, b...)
	ranks := Ranks(pooled)

	r1 := 0.0
	for i := range a {
		r1 += ranks[i]
	}

	u := r1 - n1*(n1+1)/2

	mean := n1 * n2 / 2
	sd := math.Sqrt(n1 * n2 * (n1 + n2 + 1) / 12)
	if sd == 0 {
		return MannWhitneyUResult{U: u, PValue: 1}
	}

	z := (u - mean) / sd
	if z == 0 {
		// U at its null mean is exactly uninformative; the erf polynomial
		// behind NormalCDF is not exact at 0 and would report p slightly
		// below 1.
		return MannWhitneyUResult{U: u, PValue: 1}
	}
	p := 2 * (1 - special.NormalCDF(math.Abs(z)))
	if p > 1 {
		p = 1
	}
	if p < pValueFloor {
		p = pValueFloor
	}

	return MannWhitneyUResult{U: u, Z: z, PValue: p}
}

// KruskalWallisResult carries the H statistic and its chi-squared p-value.
type KruskalWallisResult struct {
	H      float64 `json:"h"`
	DF     int     `json:"df"`
	PValue float64 `json:"p_value"`
}

// KruskalWallis generalizes the rank-sum test to k groups. Fewer than two
// non-empty groups returns p = 1.
func KruskalWallis(groups [][]float64) KruskalWallisResult {
	nonEmpty := 0
	total := 0
	for _, g := range groups {
		if len(g) > 0 {
			nonEmpty++
		}
		total += len(g)
	}
	if nonEmpty < 2 || total < 3 {
		return KruskalWallisResult{PValue: 1}
	}

	pooled := make([]float64, 0, total)
	for _, g := range groups {
		pooled = append(pooled, g...)
	}
	ranks := Ranks(pooled)

	n := float64(total)
	h := 0.0
	offset := 0
	for _, g := range groups {
		if len(g) == 0 {
			continue
		}
		rSum := 0.0
		for i := range g {
			rSum += ranks[offset+i]
		}
		offset += len(g)
		ni := float64(len(g))
		h += rSum * rSum / ni
	}
	h = 12/(n*(n+1))*h - 3*(n+1)

	df := nonEmpty - 1
	p := 1 - special.ChiSquaredCDF(h, float64(df))
	if p > 1 {
		p = 1
	}
	if p < pValueFloor {
		p = pValueFloor
	}

	return KruskalWallisResult{H: h, DF: df, PValue: p}
}

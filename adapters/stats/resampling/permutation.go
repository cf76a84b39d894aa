// Package resampling implements the shared inference toolkit: permutation
// tests over label shuffles, block bootstrap intervals over time series, and
// Benjamini-Hochberg FDR correction. Every routine draws exclusively from an
// explicitly passed RNG stream, so a (inputs, seed) pair fully determines the
// output bit-for-bit.
package resampling

import (
	"math"

	"github.com/montanaflynn/stats"

	"gopersist/adapters/stats/rank"
	"gopersist/domain/core"
	"gopersist/domain/inference"
	"gopersist/ports"
)

// GroupStatistic computes a scalar test statistic from per-item values and
// integer group labels.
type GroupStatistic func(values []float64, labels []int) float64

// PermutationTest builds an empirical null by recomputing stat under
// Fisher-Yates label shuffles. The add-one correction keeps the p-value in
// (0,1] at any finite permutation count. Misconfiguration (non-positive
// count, mismatched lengths, nil statistic) errors; degenerate data does not.
func PermutationTest(values []float64, labels []int, stat GroupStatistic, nPerm int, stream ports.RNG) (inference.PermutationTestResult, error) {
	if nPerm <= 0 {
		return inference.PermutationTestResult{}, core.ErrNoPermutations
	}
	if len(values) != len(labels) {
		return inference.PermutationTestResult{}, core.ErrLengthMismatch
	}
	if stat == nil {
		return inference.PermutationTestResult{}, core.NewValidationError("stat", "statistic function is required")
	}

	observed := stat(values, labels)

	shuffled := make([]int, len(labels))
	copy(shuffled, labels)

	null := make([]float64, nPerm)
	extreme := 0
	for i := 0; i < nPerm; i++ {
		stream.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		s := stat(values, shuffled)
		null[i] = s
		if math.Abs(s) >= math.Abs(observed) {
			extreme++
		}
	}

	p := float64(extreme+1) / float64(nPerm+1)

	effect := 0.0
	if nPerm > 1 {
		mean, _ := stats.Mean(null)
		sd, _ := stats.StandardDeviationSample(null)
		if sd > 0 {
			effect = (observed - mean) / sd
		}
	}

	return inference.PermutationTestResult{
		ObservedStatistic: observed,
		NullDistribution:  null,
		PValue:            p,
		EffectSize:        effect,
		NPermutations:     nPerm,
		Seed:              stream.Seed(),
	}, nil
}

// TwoGroupMeanDiff is the workhorse statistic: mean(label != 0) minus
// mean(label == 0). Empty groups contribute zero.
func TwoGroupMeanDiff(values []float64, labels []int) float64 {
	var sum0, sum1 float64
	var n0, n1 int
	for i, v := range values {
		if labels[i] == 0 {
			sum0 += v
			n0++
		} else {
			sum1 += v
			n1++
		}
	}
	if n0 == 0 || n1 == 0 {
		return 0
	}
	return sum1/float64(n1) - sum0/float64(n0)
}

// KruskalWallisH adapts the rank-based H statistic for permutation use,
// splitting values into groups by label.
func KruskalWallisH(values []float64, labels []int) float64 {
	byLabel := make(map[int][]float64)
	order := make([]int, 0)
	for i, v := range values {
		if _, ok := byLabel[labels[i]]; !ok {
			order = append(order, labels[i])
		}
		byLabel[labels[i]] = append(byLabel[labels[i]], v)
	}
	groups := make([][]float64, 0, len(order))
	for _, l := range order {
		groups = append(groups, byLabel[l])
	}
	return rank.KruskalWallis(groups).H
}

// SummarizeNull condenses a null distribution for storage alongside a test
// result.
func SummarizeNull(null []float64) inference.NullSummary {
	if len(null) == 0 {
		return inference.NullSummary{}
	}
	mean, _ := stats.Mean(null)
	sd, _ := stats.StandardDeviationSample(null)
	min, _ := stats.Min(null)
	max, _ := stats.Max(null)
	p95, _ := stats.Percentile(null, 95)
	p99, _ := stats.Percentile(null, 99)
	return inference.NullSummary{
		Mean:         mean,
		StdDev:       sd,
		Min:          min,
		Max:          max,
		Percentile95: p95,
		Percentile99: p99,
	}
}

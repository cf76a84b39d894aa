package resampling

import (
	"sort"

	"gopersist/domain/core"
	"gopersist/domain/inference"
)

// BenjaminiHochberg converts raw p-values into FDR q-values. Output order
// matches input order; q-values are monotone with respect to p-rank and each
// q >= its raw p. Any p outside [0,1] is a caller defect.
func BenjaminiHochberg(pValues []float64) (inference.FDRResult, error) {
	m := len(pValues)
	result := inference.FDRResult{
		PValues:            append([]float64(nil), pValues...),
		QValues:            make([]float64, m),
		SignificantAtAlpha: make(map[string]int, len(inference.FDRThresholds)),
	}
	for _, alpha := range inference.FDRThresholds {
		result.SignificantAtAlpha[inference.AlphaKey(alpha)] = 0
	}
	if m == 0 {
		return result, nil
	}

	for _, p := range pValues {
		if p < 0 || p > 1 {
			return inference.FDRResult{}, core.ErrInvalidPValue
		}
	}

	order := make([]int, m)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return pValues[order[a]] < pValues[order[b]]
	})

	// Raw q_(i) = p_(i) * m / i, then a single backward pass enforces
	// monotonicity in p-rank.
	sortedQ := make([]float64, m)
	for i, idx := range order {
		sortedQ[i] = pValues[idx] * float64(m) / float64(i+1)
	}
	for i := m - 2; i >= 0; i-- {
		if sortedQ[i] > sortedQ[i+1] {
			sortedQ[i] = sortedQ[i+1]
		}
	}

	for i, idx := range order {
		q := sortedQ[i]
		if q > 1 {
			q = 1
		}
		if q < 0 {
			q = 0
		}
		result.QValues[idx] = q
	}

	for _, alpha := range inference.FDRThresholds {
		count := 0
		for _, q := range result.QValues {
			if q <= alpha {
				count++
			}
		}
		result.SignificantAtAlpha[inference.AlphaKey(alpha)] = count
	}

	return result, nil
}

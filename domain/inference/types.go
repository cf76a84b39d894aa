// Package inference defines the value objects produced by the resampling
// toolkit: permutation test results, bootstrap intervals, FDR corrections
// and circular statistics. All of them are plain records built once per
// call from a reproducible RNG stream; nothing here is ever mutated.
package inference

import "strconv"

// Significance thresholds reported by FDR correction.
var FDRThresholds = []float64{0.05, 0.10, 0.20}

// PermutationTestResult captures one permutation test invocation.
type PermutationTestResult struct {
	ObservedStatistic float64   `json:"observed_statistic"`
	NullDistribution  []float64 `json:"null_distribution"`
	PValue            float64   `json:"p_value"` // in (0,1] by add-one construction
	EffectSize        float64   `json:"effect_size"`
	NPermutations     int       `json:"n_permutations"`
	Seed              int64     `json:"seed"`
}

// RankTestResult is the analytic (rank-based) companion to a permutation
// group test; the two p-values should broadly agree on well-behaved data.
type RankTestResult struct {
	U      float64 `json:"u"`
	Z      float64 `json:"z"`
	PValue float64 `json:"p_value"`
}

// NullSummary condenses a null distribution for storage and reporting.
type NullSummary struct {
	Mean         float64 `json:"mean"`
	StdDev       float64 `json:"std_dev"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	Percentile95 float64 `json:"percentile_95"`
	Percentile99 float64 `json:"percentile_99"`
}

// BootstrapCI is a percentile confidence interval; Lower <= Upper by
// construction (sorted percentiles).
type BootstrapCI struct {
	PointEstimate float64 `json:"point_estimate"`
	Lower         float64 `json:"ci95_lower"`
	Upper         float64 `json:"ci95_upper"`
	Width         float64 `json:"width"`
	NBootstrap    int     `json:"n_bootstrap"`
}

// AlphaKey formats a significance threshold as a stable map key.
// encoding/json cannot marshal float-keyed maps, so counts are keyed by the
// two-decimal string form ("0.05", "0.10", "0.20").
func AlphaKey(alpha float64) string {
	return strconv.FormatFloat(alpha, 'f', 2, 64)
}

// FDRResult pairs raw p-values with Benjamini-Hochberg q-values in the
// caller's original item order.
type FDRResult struct {
	PValues            []float64      `json:"p_values"`
	QValues            []float64      `json:"q_values"`
	SignificantAtAlpha map[string]int `json:"significant_at_alpha"`
}

// SignificantAt returns the significant count for a threshold.
func (r FDRResult) SignificantAt(alpha float64) int {
	return r.SignificantAtAlpha[AlphaKey(alpha)]
}

// CircularStatResult is the Rayleigh test output over a set of phases.
type CircularStatResult struct {
	R             float64 `json:"mean_resultant_length"` // in [0,1]
	Z             float64 `json:"test_statistic"`
	PValue        float64 `json:"p_value"`
	MeanDirection float64 `json:"mean_direction"` // in time units of the period
	CircularSD    float64 `json:"circular_sd"`    // in time units of the period
	N             int     `json:"n"`
}

// CosinorFit is the closed-form sinusoid fit at a fixed period.
type CosinorFit struct {
	Mesor     float64 `json:"mesor"`
	Amplitude float64 `json:"amplitude"`
	Phase     float64 `json:"phase"` // in [0, period)
	Period    float64 `json:"period"`
	R2        float64 `json:"r2"`
}

// IsDegenerate reports a cosinor fit with no usable rhythm structure.
func (c CosinorFit) IsDegenerate() bool {
	return c.Amplitude == 0 && c.R2 == 0
}

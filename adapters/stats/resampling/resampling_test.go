package resampling

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"gopersist/adapters/rng"
	"gopersist/domain/core"
	"gopersist/domain/inference"
	"gopersist/internal/testkit"
)

func TestPermutationTest_SeparatedGroupsSignificant(t *testing.T) {
	// Large true mean gap, low within-group variance, seed 42
	values := make([]float64, 40)
	labels := make([]int, 40)
	g := rng.New(1)
	for i := 0; i < 20; i++ {
		values[i] = 10 + 0.1*testkit.Normal(g)
		labels[i] = 0
	}
	for i := 20; i < 40; i++ {
		values[i] = 20 + 0.1*testkit.Normal(g)
		labels[i] = 1
	}

	res, err := PermutationTest(values, labels, TwoGroupMeanDiff, 1000, rng.New(42))
	if err != nil {
		t.Fatalf("permutation test: %v", err)
	}

	if res.PValue >= 0.01 {
		t.Errorf("large gap should give p < 0.01, got %v", res.PValue)
	}
	if res.PValue <= 0 || res.PValue > 1 {
		t.Errorf("p-value must stay in (0,1], got %v", res.PValue)
	}
	if math.Abs(res.ObservedStatistic-10) > 0.2 {
		t.Errorf("observed mean gap = %v, want near 10", res.ObservedStatistic)
	}
	if res.EffectSize <= 3 {
		t.Errorf("standardized effect should be large, got %v", res.EffectSize)
	}
	if res.NPermutations != 1000 || res.Seed != 42 {
		t.Errorf("metadata wrong: %+v", res)
	}
}

func TestPermutationTest_BitIdenticalReruns(t *testing.T) {
	values := []float64{3, 1, 4, 1, 5, 9, 2, 6, 5, 3, 5, 8}
	labels := []int{0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 1, 1}

	a, err := PermutationTest(values, labels, TwoGroupMeanDiff, 500, rng.New(42))
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	b, err := PermutationTest(values, labels, TwoGroupMeanDiff, 500, rng.New(42))
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if a.PValue != b.PValue || a.ObservedStatistic != b.ObservedStatistic || a.EffectSize != b.EffectSize {
		t.Fatalf("reruns diverged: %+v vs %+v", a, b)
	}
	for i := range a.NullDistribution {
		if a.NullDistribution[i] != b.NullDistribution[i] {
			t.Fatalf("null distributions diverge at %d", i)
		}
	}
}

func TestPermutationTest_AddOneCorrection(t *testing.T) {
	// Identical groups: observed statistic 0, every permutation ties or beats
	// it, p must be exactly 1, never above
	values := []float64{5, 5, 5, 5, 5, 5}
	labels := []int{0, 0, 0, 1, 1, 1}

	res, err := PermutationTest(values, labels, TwoGroupMeanDiff, 99, rng.New(7))
	if err != nil {
		t.Fatalf("permutation test: %v", err)
	}
	if res.PValue != 1 {
		t.Errorf("indistinguishable groups should give p = 1, got %v", res.PValue)
	}
}

func TestPermutationTest_CallerErrors(t *testing.T) {
	values := []float64{1, 2, 3}
	labels := []int{0, 1, 0}

	if _, err := PermutationTest(values, labels, TwoGroupMeanDiff, 0, rng.New(1)); !errors.Is(err, core.ErrNoPermutations) {
		t.Errorf("zero permutations should be ErrNoPermutations, got %v", err)
	}
	if _, err := PermutationTest(values, []int{0, 1}, TwoGroupMeanDiff, 100, rng.New(1)); !errors.Is(err, core.ErrLengthMismatch) {
		t.Errorf("mismatched lengths should be ErrLengthMismatch, got %v", err)
	}
	if _, err := PermutationTest(values, labels, nil, 100, rng.New(1)); err == nil {
		t.Error("nil statistic should error")
	}
}

func TestPermutationTest_KruskalWallisStatistic(t *testing.T) {
	values := []float64{1, 2, 3, 101, 102, 103, 201, 202, 203}
	labels := []int{0, 0, 0, 1, 1, 1, 2, 2, 2}

	res, err := PermutationTest(values, labels, KruskalWallisH, 500, rng.New(42))
	if err != nil {
		t.Fatalf("permutation test: %v", err)
	}
	if res.PValue >= 0.05 {
		t.Errorf("separated triple grouping should be significant, got p = %v", res.PValue)
	}
}

func TestBlockBootstrap_CoversStableModulus(t *testing.T) {
	g := rng.New(13)
	vals := testkit.AR2Series(0.7, -0.2, 400, 1.0, g)

	ci, err := BlockBootstrap(vals, 0, 500, rng.New(42), nil)
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if ci.Lower > ci.Upper {
		t.Fatalf("interval inverted: %+v", ci)
	}
	if ci.PointEstimate <= 0 || ci.PointEstimate >= 1 {
		t.Errorf("stationary process modulus should be in (0,1), got %v", ci.PointEstimate)
	}
	if ci.Width <= 0 || ci.Width > 1 {
		t.Errorf("interval width implausible: %v", ci.Width)
	}
}

func TestBlockBootstrap_Deterministic(t *testing.T) {
	g := rng.New(5)
	vals := testkit.AR2Series(0.6, 0.1, 200, 1.0, g)

	a, err := BlockBootstrap(vals, 14, 300, rng.New(9), nil)
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	b, err := BlockBootstrap(vals, 14, 300, rng.New(9), nil)
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if a != b {
		t.Errorf("same seed should reproduce the interval exactly: %+v vs %+v", a, b)
	}
}

func TestBlockBootstrap_CallerErrors(t *testing.T) {
	vals := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	if _, err := BlockBootstrap(vals, 4, 0, rng.New(1), nil); !errors.Is(err, core.ErrNoBootstrap) {
		t.Errorf("zero replicates should be ErrNoBootstrap, got %v", err)
	}
	if _, err := BlockBootstrap(vals, 100, 10, rng.New(1), nil); !errors.Is(err, core.ErrInvalidBlockSize) {
		t.Errorf("oversized block should be ErrInvalidBlockSize, got %v", err)
	}
}

func TestBlockBootstrap_ShortSeriesNeutral(t *testing.T) {
	ci, err := BlockBootstrap([]float64{3}, 0, 100, rng.New(1), nil)
	if err != nil {
		t.Fatalf("short series must not error: %v", err)
	}
	if ci.Lower != ci.Upper || ci.Width != 0 {
		t.Errorf("short series should give zero-width interval, got %+v", ci)
	}
}

func TestResidualBlockBootstrap_StableProcess(t *testing.T) {
	g := rng.New(17)
	vals := testkit.AR2Series(0.8, -0.3, 400, 1.0, g)

	ci, err := ResidualBlockBootstrap(vals, 0, 400, rng.New(42), nil)
	if err != nil {
		t.Fatalf("residual bootstrap: %v", err)
	}
	if ci.Lower > ci.Upper {
		t.Fatalf("interval inverted: %+v", ci)
	}
	// The true modulus is sqrt(0.3) ~ 0.55; the interval should sit in the
	// stationary region around it
	if ci.Lower < 0 || ci.Upper > 1.1 {
		t.Errorf("interval [%v, %v] implausible for a stationary process", ci.Lower, ci.Upper)
	}
}

func TestResidualBlockBootstrap_DegenerateFallback(t *testing.T) {
	ci, err := ResidualBlockBootstrap([]float64{5, 5, 5, 5, 5, 5}, 0, 100, rng.New(1), nil)
	if err != nil {
		t.Fatalf("degenerate input must not error: %v", err)
	}
	if ci.Width != 0 {
		t.Errorf("constant series should give zero-width interval, got %+v", ci)
	}
}

func TestBenjaminiHochberg_KnownValues(t *testing.T) {
	res, err := BenjaminiHochberg([]float64{0.01, 0.04, 0.03, 0.005})
	if err != nil {
		t.Fatalf("bh: %v", err)
	}

	// Sorted: 0.005, 0.01, 0.03, 0.04 -> raw q: 0.02, 0.02, 0.04, 0.04
	want := []float64{0.02, 0.04, 0.04, 0.02}
	for i := range want {
		if math.Abs(res.QValues[i]-want[i]) > 1e-12 {
			t.Fatalf("q-values = %v, want %v", res.QValues, want)
		}
	}
	if res.SignificantAt(0.05) != 4 {
		t.Errorf("expected all 4 significant at 0.05, got %d", res.SignificantAt(0.05))
	}
}

func TestBenjaminiHochberg_ResultSerializes(t *testing.T) {
	res, err := BenjaminiHochberg([]float64{0.01, 0.5})
	if err != nil {
		t.Fatalf("bh: %v", err)
	}

	payload, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("result must survive JSON encoding: %v", err)
	}

	var back inference.FDRResult
	if err := json.Unmarshal(payload, &back); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, alpha := range inference.FDRThresholds {
		if back.SignificantAt(alpha) != res.SignificantAt(alpha) {
			t.Errorf("count at %v lost in round trip: %d vs %d",
				alpha, back.SignificantAt(alpha), res.SignificantAt(alpha))
		}
	}
}

func TestBenjaminiHochberg_MonotoneAndDominatesP(t *testing.T) {
	g := rng.New(42)
	p := make([]float64, 200)
	for i := range p {
		p[i] = g.Next()
	}

	res, err := BenjaminiHochberg(p)
	if err != nil {
		t.Fatalf("bh: %v", err)
	}

	type pq struct{ p, q float64 }
	pairs := make([]pq, len(p))
	for i := range p {
		if res.QValues[i] < p[i]-1e-12 {
			t.Fatalf("q (%v) below raw p (%v) at %d", res.QValues[i], p[i], i)
		}
		if res.QValues[i] < 0 || res.QValues[i] > 1 {
			t.Fatalf("q outside [0,1]: %v", res.QValues[i])
		}
		pairs[i] = pq{p[i], res.QValues[i]}
	}

	// Monotone with respect to p-rank
	for i := range pairs {
		for j := range pairs {
			if pairs[i].p < pairs[j].p && pairs[i].q > pairs[j].q+1e-12 {
				t.Fatalf("monotonicity violated: p=%v q=%v vs p=%v q=%v", pairs[i].p, pairs[i].q, pairs[j].p, pairs[j].q)
			}
		}
	}
}

func TestBenjaminiHochberg_Edges(t *testing.T) {
	res, err := BenjaminiHochberg(nil)
	if err != nil {
		t.Fatalf("empty input must not error: %v", err)
	}
	if len(res.QValues) != 0 {
		t.Errorf("empty input should give empty q-values")
	}

	if _, err := BenjaminiHochberg([]float64{0.5, 1.2}); !errors.Is(err, core.ErrInvalidPValue) {
		t.Errorf("p > 1 should be ErrInvalidPValue, got %v", err)
	}
	if _, err := BenjaminiHochberg([]float64{-0.1}); !errors.Is(err, core.ErrInvalidPValue) {
		t.Errorf("p < 0 should be ErrInvalidPValue, got %v", err)
	}
}

func TestSummarizeNull(t *testing.T) {
	s := SummarizeNull([]float64{1, 2, 3, 4, 5})
	if s.Mean != 3 {
		t.Errorf("mean = %v, want 3", s.Mean)
	}
	if s.Min != 1 || s.Max != 5 {
		t.Errorf("min/max = %v/%v, want 1/5", s.Min, s.Max)
	}
	if s.Percentile95 < s.Mean || s.Percentile99 < s.Percentile95 {
		t.Errorf("percentiles out of order: %+v", s)
	}
}

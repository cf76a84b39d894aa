package circular

import (
	"errors"
	"math"
	"testing"

	"gopersist/adapters/rng"
	"gopersist/domain/core"
	"gopersist/internal/testkit"
)

func TestFitCosinor_RecoversPureSinusoid(t *testing.T) {
	const (
		period    = 24.0
		amplitude = 3.5
		phase     = 7.0
		mesor     = 12.0
	)
	values, timepoints := testkit.Sinusoid(48, period, amplitude, phase, mesor)

	fit, err := FitCosinor(values, timepoints, period)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}

	if math.Abs(fit.Amplitude-amplitude) > 1e-9 {
		t.Errorf("amplitude = %v, want %v", fit.Amplitude, amplitude)
	}
	if math.Abs(fit.Phase-phase) > 1e-9 {
		t.Errorf("phase = %v, want %v", fit.Phase, phase)
	}
	if math.Abs(fit.Mesor-mesor) > 1e-9 {
		t.Errorf("mesor = %v, want %v", fit.Mesor, mesor)
	}
	if math.Abs(fit.R2-1) > 1e-9 {
		t.Errorf("noiseless sinusoid should give r2 = 1, got %v", fit.R2)
	}
}

func TestFitCosinor_PhaseWrapsIntoPeriod(t *testing.T) {
	values, timepoints := testkit.Sinusoid(48, 24, 2, 23.5, 0)
	fit, err := FitCosinor(values, timepoints, 24)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if fit.Phase < 0 || fit.Phase >= 24 {
		t.Errorf("phase must wrap into [0,24), got %v", fit.Phase)
	}
	if math.Abs(fit.Phase-23.5) > 1e-9 {
		t.Errorf("phase = %v, want 23.5", fit.Phase)
	}
}

func TestFitCosinor_ShortSeriesDegenerate(t *testing.T) {
	fit, err := FitCosinor([]float64{1, 2, 3}, []float64{0, 1, 2}, 24)
	if err != nil {
		t.Fatalf("short series must not error: %v", err)
	}
	if !fit.IsDegenerate() {
		t.Errorf("short series should give degenerate fit, got %+v", fit)
	}
}

func TestFitCosinor_ConstantSeriesDegenerate(t *testing.T) {
	values := []float64{4, 4, 4, 4, 4, 4, 4, 4}
	timepoints := []float64{0, 3, 6, 9, 12, 15, 18, 21}
	fit, err := FitCosinor(values, timepoints, 24)
	if err != nil {
		t.Fatalf("constant series must not error: %v", err)
	}
	if fit.Amplitude > 1e-9 || fit.R2 != 0 {
		t.Errorf("constant series should carry no rhythm, got %+v", fit)
	}
}

func TestFitCosinor_CallerErrors(t *testing.T) {
	if _, err := FitCosinor([]float64{1, 2}, []float64{0, 1}, 0); !errors.Is(err, core.ErrInvalidPeriod) {
		t.Errorf("zero period should be ErrInvalidPeriod, got %v", err)
	}
	if _, err := FitCosinor([]float64{1, 2, 3}, []float64{0, 1}, 24); !errors.Is(err, core.ErrLengthMismatch) {
		t.Errorf("mismatched lengths should be ErrLengthMismatch, got %v", err)
	}
}

func TestRayleighTest_ClusteredPhases(t *testing.T) {
	// Tight cluster around hour 6
	phases := []float64{5.5, 5.8, 6.0, 6.1, 6.3, 5.9, 6.2, 6.0, 5.7, 6.4}
	res, err := RayleighTest(phases, 24)
	if err != nil {
		t.Fatalf("rayleigh: %v", err)
	}

	if res.R < 0.95 {
		t.Errorf("tight cluster should give R near 1, got %v", res.R)
	}
	if res.PValue >= 0.01 {
		t.Errorf("tight cluster should be significant, got p = %v", res.PValue)
	}
	if math.Abs(res.MeanDirection-6.0) > 0.5 {
		t.Errorf("mean direction = %v, want near 6", res.MeanDirection)
	}
	if res.CircularSD <= 0 || res.CircularSD > 2 {
		t.Errorf("tight cluster circular SD should be small, got %v", res.CircularSD)
	}
}

func TestRayleighTest_UniformPhases(t *testing.T) {
	// Evenly spread phases: resultant vector cancels
	phases := make([]float64, 12)
	for i := range phases {
		phases[i] = float64(i) * 2
	}
	res, err := RayleighTest(phases, 24)
	if err != nil {
		t.Fatalf("rayleigh: %v", err)
	}
	if res.R > 1e-9 {
		t.Errorf("evenly spread phases should give R near 0, got %v", res.R)
	}
	if res.PValue < 0.9 {
		t.Errorf("uniform phases should be far from significant, got p = %v", res.PValue)
	}
}

func TestRayleighTest_Guards(t *testing.T) {
	if _, err := RayleighTest([]float64{1, 2}, -1); !errors.Is(err, core.ErrInvalidPeriod) {
		t.Errorf("negative period should be ErrInvalidPeriod, got %v", err)
	}
	res, err := RayleighTest([]float64{3}, 24)
	if err != nil {
		t.Fatalf("single phase must not error: %v", err)
	}
	if res.PValue != 1 {
		t.Errorf("single phase should give neutral p = 1, got %v", res.PValue)
	}
}

func TestAmplitudeCI_CoversTruth(t *testing.T) {
	values, timepoints := testkit.Sinusoid(60, 24, 2.5, 10, 5)
	// Add mild deterministic noise so the bootstrap has spread
	g := rng.New(4)
	for i := range values {
		values[i] += 0.3 * testkit.Normal(g)
	}

	ci, err := AmplitudeCI(values, timepoints, 24, 500, rng.New(42))
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if ci.Lower > ci.Upper {
		t.Fatalf("interval inverted: [%v, %v]", ci.Lower, ci.Upper)
	}
	if ci.Lower > 2.8 || ci.Upper < 2.2 {
		t.Errorf("95%% interval [%v, %v] should sit near the true amplitude 2.5", ci.Lower, ci.Upper)
	}
	if ci.Width <= 0 {
		t.Errorf("interval width should be positive, got %v", ci.Width)
	}
}

func TestAmplitudeCI_Deterministic(t *testing.T) {
	values, timepoints := testkit.Sinusoid(40, 24, 1.5, 3, 0)
	g := rng.New(8)
	for i := range values {
		values[i] += 0.2 * testkit.Normal(g)
	}

	a, err := AmplitudeCI(values, timepoints, 24, 200, rng.New(9))
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	b, err := AmplitudeCI(values, timepoints, 24, 200, rng.New(9))
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if a != b {
		t.Errorf("same seed should reproduce the interval exactly: %+v vs %+v", a, b)
	}
}

func TestAmplitudeCI_CallerError(t *testing.T) {
	values, timepoints := testkit.Sinusoid(40, 24, 1, 0, 0)
	if _, err := AmplitudeCI(values, timepoints, 24, 0, rng.New(1)); !errors.Is(err, core.ErrNoBootstrap) {
		t.Errorf("zero replicates should be ErrNoBootstrap, got %v", err)
	}
}

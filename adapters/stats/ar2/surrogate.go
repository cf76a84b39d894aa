package ar2

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"

	"gopersist/ports"
)

// PhaseRandomize builds a surrogate series with the same power spectrum as
// the input but phases replaced by uniform draws from the supplied stream.
// Refitting surrogates yields the "same spectrum, randomized phase" null.
// The DC component keeps its value and, for even lengths, the Nyquist bin
// stays real so the inverse transform remains a real sequence.
func PhaseRandomize(values []float64, rng ports.RNG) []float64 {
	n := len(values)
	if n < 2 {
		out := make([]float64, n)
		copy(out, values)
		return out
	}

	fft := fourier.NewFFT(n)
	coeff := fft.Coefficients(nil, values)

	last := len(coeff) - 1
	for k := 1; k < len(coeff); k++ {
		if n%2 == 0 && k == last {
			continue
		}
		mag := cmplx.Abs(coeff[k])
		phase := 2 * math.Pi * rng.Next()
		coeff[k] = cmplx.Rect(mag, phase)
	}

	out := fft.Sequence(nil, coeff)
	// gonum's inverse is unnormalized
	for i := range out {
		out[i] /= float64(n)
	}
	return out
}

// SpectrumMagnitudes returns the one-sided DFT magnitude of a series,
// exposed so tests and enrichment diagnostics can verify surrogates preserve
// power.
func SpectrumMagnitudes(values []float64) []float64 {
	n := len(values)
	if n == 0 {
		return nil
	}
	fft := fourier.NewFFT(n)
	coeff := fft.Coefficients(nil, values)
	out := make([]float64, len(coeff))
	for i, c := range coeff {
		out[i] = cmplx.Abs(c)
	}
	return out
}

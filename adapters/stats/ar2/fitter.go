// Package ar2 implements the second-order autoregressive fitter, the
// characteristic-root resolver and the null-geometry constructions built on
// top of it. This is the engine behind every persistence analysis: a gene's
// trajectory reduces to the dominant root modulus of its AR(2) fit.
package ar2

import (
	"math"

	"gopersist/domain/dynamics"
	"gopersist/domain/series"
)

// detTolerance guards the closed-form 2x2 inversion. Near-collinear lag
// vectors (constant or linearly trending series) fall below it and yield the
// degenerate fit instead of a division by a vanishing determinant.
const detTolerance = 1e-12

// Fit estimates y[t] = phi1*y[t-1] + phi2*y[t-2] + e by least squares over
// the mean-centered series. Series shorter than series.MinAR2Len, and any
// near-singular regression, return the degenerate fit rather than an error
// so aggregate statistics silently exclude them.
func Fit(ts series.TimeSeries) dynamics.AR2Fit {
	n := ts.Len()
	if n < series.MinAR2Len {
		return dynamics.Degenerate()
	}

	y := ts.Centered()

	// Normal equations over t = 2..n-1
	var s11, s22, s12, s1y, s2y float64
	for t := 2; t < n; t++ {
		y1, y2, yt := y[t-1], y[t-2], y[t]
		s11 += y1 * y1
		s22 += y2 * y2
		s12 += y1 * y2
		s1y += y1 * yt
		s2y += y2 * yt
	}

	det := s11*s22 - s12*s12
	if math.Abs(det) < detTolerance {
		// Perfectly collinear lags (e.g. exact alternation, where
		// y[t-2] = -y[t-1]) make the 2x2 system singular even though the
		// series has first-order structure. Fall back to AR(1); a series
		// with no lag variance at all (constant input) stays degenerate.
		return fitAR1(y, n)
	}

	phi1 := (s1y*s22 - s2y*s12) / det
	phi2 := (s2y*s11 - s1y*s12) / det
	if math.IsNaN(phi1) || math.IsNaN(phi2) || math.IsInf(phi1, 0) || math.IsInf(phi2, 0) {
		return dynamics.Degenerate()
	}

	var ssRes, ssTot float64
	for t := 2; t < n; t++ {
		resid := y[t] - phi1*y[t-1] - phi2*y[t-2]
		ssRes += resid * resid
		ssTot += y[t] * y[t]
	}

	// R^2 clipped to [0,1]: pathological fits would otherwise report negative
	// values and confuse downstream quality filters.
	r2 := 0.0
	if ssTot > 0 {
		r2 = 1 - ssRes/ssTot
		if r2 < 0 {
			r2 = 0
		} else if r2 > 1 {
			r2 = 1
		}
	}

	return dynamics.AR2Fit{
		Phi1:              phi1,
		Phi2:              phi2,
		EigenvalueModulus: dynamics.DominantModulus(phi1, phi2),
		IsComplexRoots:    dynamics.Discriminant(phi1, phi2) < 0,
		R2:                r2,
	}
}

// fitAR1 is the rank-deficient fallback: y[t] = phi1*y[t-1] over the same
// t = 2..n-1 window, phi2 pinned to zero.
func fitAR1(y []float64, n int) dynamics.AR2Fit {
	var s11, s1y float64
	for t := 2; t < n; t++ {
		s11 += y[t-1] * y[t-1]
		s1y += y[t-1] * y[t]
	}
	if s11 < detTolerance {
		return dynamics.Degenerate()
	}
	phi1 := s1y / s11

	var ssRes, ssTot float64
	for t := 2; t < n; t++ {
		resid := y[t] - phi1*y[t-1]
		ssRes += resid * resid
		ssTot += y[t] * y[t]
	}
	r2 := 0.0
	if ssTot > 0 {
		r2 = 1 - ssRes/ssTot
		if r2 < 0 {
			r2 = 0
		} else if r2 > 1 {
			r2 = 1
		}
	}

	return dynamics.AR2Fit{
		Phi1:              phi1,
		EigenvalueModulus: math.Abs(phi1),
		R2:                r2,
	}
}

// FitValues fits a bare value slice with implicit unit timepoints.
func FitValues(values []float64) dynamics.AR2Fit {
	return Fit(series.TimeSeries{Values: values})
}

// Residuals returns the fit residuals on the centered scale for t = 2..n-1.
// Degenerate fits (or short series) yield an empty slice.
func Residuals(ts series.TimeSeries, fit dynamics.AR2Fit) []float64 {
	n := ts.Len()
	if n < series.MinAR2Len || fit.IsDegenerate() {
		return nil
	}
	y := ts.Centered()
	out := make([]float64, 0, n-2)
	for t := 2; t < n; t++ {
		out = append(out, y[t]-fit.Phi1*y[t-1]-fit.Phi2*y[t-2])
	}
	return out
}

// Replay reconstructs a synthetic centered series of length n by running the
// AR(2) recursion forward with the supplied innovation sequence. The first
// two values seed from the innovations directly.
func Replay(fit dynamics.AR2Fit, innovations []float64) []float64 {
	n := len(innovations)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	out[0] = innovations[0]
	if n > 1 {
		out[1] = innovations[1]
	}
	for t := 2; t < n; t++ {
		out[t] = fit.Phi1*out[t-1] + fit.Phi2*out[t-2] + innovations[t]
	}
	return out
}

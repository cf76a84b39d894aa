// Package dynamics holds the AR(2) model value objects: coefficient fits,
// characteristic-root geometry, and the stability classification every
// analysis filters on.
package dynamics

import "math"

// Stability thresholds on the dominant root modulus.
const (
	// StationaryCeiling separates stable/stationary fits from non-stationary ones.
	StationaryCeiling = 1.0
	// DegenerateCeiling is the universal exclusion guard: any modulus at or
	// above it is treated as numerically degenerate by every caller.
	DegenerateCeiling = 1.5
)

// StabilityClass buckets an AR(2) fit by its dominant root modulus.
type StabilityClass string

const (
	StabilityStationary    StabilityClass = "stationary"
	StabilityNonStationary StabilityClass = "non_stationary"
	StabilityDegenerate    StabilityClass = "degenerate"
)

// AR2Fit is the immutable result of fitting y[t] = phi1*y[t-1] + phi2*y[t-2] + e.
// The zero value is the degenerate fit, a valid terminal signaling "no usable
// second-order structure", never an error.
type AR2Fit struct {
	Phi1              float64 `json:"phi1"`
	Phi2              float64 `json:"phi2"`
	EigenvalueModulus float64 `json:"eigenvalue_modulus"`
	IsComplexRoots    bool    `json:"is_complex_roots"`
	R2                float64 `json:"r2"`
}

// Degenerate returns the canonical degenerate fit.
func Degenerate() AR2Fit {
	return AR2Fit{}
}

// IsDegenerate reports whether the fit carries no second-order structure.
func (f AR2Fit) IsDegenerate() bool {
	return f.Phi1 == 0 && f.Phi2 == 0 && f.EigenvalueModulus == 0 && f.R2 == 0
}

// Stability classifies the fit by dominant root modulus.
func (f AR2Fit) Stability() StabilityClass {
	switch {
	case f.IsDegenerate(), f.EigenvalueModulus >= DegenerateCeiling:
		return StabilityDegenerate
	case f.EigenvalueModulus >= StationaryCeiling:
		return StabilityNonStationary
	default:
		return StabilityStationary
	}
}

// Usable reports whether the fit passes the universal modulus guard and
// carries structure at all. Non-stationary fits below the degenerate ceiling
// are usable for screens that study them explicitly.
func (f AR2Fit) Usable() bool {
	return !f.IsDegenerate() && f.EigenvalueModulus < DegenerateCeiling
}

// RootPolar is the polar view of the dominant characteristic root.
type RootPolar struct {
	R         float64 `json:"r"`
	Theta     float64 `json:"theta"`
	IsComplex bool    `json:"is_complex"`
}

// InStationaryTriangle reports whether (phi1, phi2) lies strictly inside the
// AR(2) stationarity region bounded by phi2 = 1 - phi1, phi2 = 1 + phi1 and
// phi2 = -1.
func InStationaryTriangle(phi1, phi2 float64) bool {
	return phi2 < 1-phi1 && phi2 < 1+phi1 && phi2 > -1
}

// OnComplexSide reports whether (phi1, phi2) sits below the parabola
// phi2 = -phi1^2/4, the subregion with complex conjugate roots.
func OnComplexSide(phi1, phi2 float64) bool {
	return phi2 < -phi1*phi1/4
}

// Discriminant of the characteristic polynomial x^2 - phi1*x - phi2.
func Discriminant(phi1, phi2 float64) float64 {
	return phi1*phi1 + 4*phi2
}

// DominantModulus resolves the dominant root modulus for arbitrary
// coefficients, handling the real and complex branches.
func DominantModulus(phi1, phi2 float64) float64 {
	d := Discriminant(phi1, phi2)
	if d >= 0 {
		sq := math.Sqrt(d)
		r1 := (phi1 + sq) / 2
		r2 := (phi1 - sq) / 2
		return math.Max(math.Abs(r1), math.Abs(r2))
	}
	// Complex conjugate pair: |root| = sqrt(-phi2)
	return math.Sqrt(-phi2)
}

package ar2

import (
	"math"

	"gopersist/domain/dynamics"
	"gopersist/ports"
)

// Roots maps (phi1, phi2) to the polar view of the dominant characteristic
// root of x^2 - phi1*x - phi2. For a real dominant root the angle is 0
// (monotone decay/growth) or pi (sign-alternating dynamics); for a complex
// conjugate pair it is the argument of the upper-half-plane root.
func Roots(phi1, phi2 float64) dynamics.RootPolar {
	d := dynamics.Discriminant(phi1, phi2)
	if d >= 0 {
		sq := math.Sqrt(d)
		r1 := (phi1 + sq) / 2
		r2 := (phi1 - sq) / 2
		dominant := r1
		if math.Abs(r2) > math.Abs(r1) {
			dominant = r2
		}
		theta := 0.0
		if dominant < 0 {
			theta = math.Pi
		}
		return dynamics.RootPolar{R: math.Abs(dominant), Theta: theta}
	}
	re := phi1 / 2
	im := math.Sqrt(-d) / 2
	return dynamics.RootPolar{
		R:         math.Sqrt(-phi2),
		Theta:     math.Atan2(im, re),
		IsComplex: true,
	}
}

// SampleStationaryPair draws (phi1, phi2) uniformly inside the stationarity
// triangle by rejection sampling over its bounding box. Used as the purely
// geometric null for root-space enrichment tests.
func SampleStationaryPair(rng ports.RNG) (phi1, phi2 float64) {
	for {
		phi1 = -2 + 4*rng.Next()
		phi2 = -1 + 2*rng.Next()
		if dynamics.InStationaryTriangle(phi1, phi2) {
			return phi1, phi2
		}
	}
}

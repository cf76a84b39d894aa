// Package circular implements the fixed-period cosinor regression and the
// Rayleigh test used by the phase-gating analyses. Phases are carried in the
// time units of the period (hours for the usual 24h fits), not radians, to
// match how the biology is read.
package circular

import (
	"math"

	"gopersist/domain/core"
	"gopersist/domain/inference"
	"gopersist/domain/series"
	"gopersist/ports"
)

// FitCosinor fits y(t) ~ mesor + beta*cos(2*pi*t/period) + gamma*sin(2*pi*t/period)
// by closed-form least squares. Fewer than series.MinCosinorLen observations,
// mismatched inputs or a singular design return the degenerate fit; a
// non-positive period is a caller defect and errors.
func FitCosinor(values, timepoints []float64, period float64) (inference.CosinorFit, error) {
	if period <= 0 {
		return inference.CosinorFit{}, core.ErrInvalidPeriod
	}
	if len(values) != len(timepoints) {
		return inference.CosinorFit{}, core.ErrLengthMismatch
	}
	n := len(values)
	if n < series.MinCosinorLen {
		return inference.CosinorFit{Period: period}, nil
	}

	omega := 2 * math.Pi / period

	// Center target and regressors so the mesor drops out and the system is 2x2.
	var meanY, meanC, meanS float64
	cosReg := make([]float64, n)
	sinReg := make([]float64, n)
	for i := 0; i < n; i++ {
		cosReg[i] = math.Cos(omega * timepoints[i])
		sinReg[i] = math.Sin(omega * timepoints[i])
		meanY += values[i]
		meanC += cosReg[i]
		meanS += sinReg[i]
	}
	fn := float64(n)
	meanY /= fn
	meanC /= fn
	meanS /= fn

	var scc, sss, scs, scy, ssy float64
	for i := 0; i < n; i++ {
		c := cosReg[i] - meanC
		s := sinReg[i] - meanS
		y := values[i] - meanY
		scc += c * c
		sss += s * s
		scs += c * s
		scy += c * y
		ssy += s * y
	}

	det := scc*sss - scs*scs
	if math.Abs(det) < 1e-12 {
		return inference.CosinorFit{Period: period}, nil
	}

	beta := (scy*sss - ssy*scs) / det
	gamma := (ssy*scc - scy*scs) / det
	mesor := meanY - beta*meanC - gamma*meanS

	var ssRes, ssTot float64
	for i := 0; i < n; i++ {
		pred := mesor + beta*cosReg[i] + gamma*sinReg[i]
		r := values[i] - pred
		ssRes += r * r
		d := values[i] - meanY
		ssTot += d * d
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

	amplitude := math.Sqrt(beta*beta + gamma*gamma)
	phase := math.Atan2(-gamma, beta) * period / (2 * math.Pi)
	phase = wrapPhase(phase, period)

	return inference.CosinorFit{
		Mesor:     mesor,
		Amplitude: amplitude,
		Phase:     phase,
		Period:    period,
		R2:        r2,
	}, nil
}

// wrapPhase maps a phase estimate into [0, period).
func wrapPhase(phase, period float64) float64 {
	phase = math.Mod(phase, period)
	if phase < 0 {
		phase += period
	}
	return phase
}

// AmplitudeCI estimates a 95% bootstrap interval for the cosinor amplitude
// by case resampling with the supplied stream. nBoot <= 0 is a caller defect.
func AmplitudeCI(values, timepoints []float64, period float64, nBoot int, stream ports.RNG) (inference.BootstrapCI, error) {
	if nBoot <= 0 {
		return inference.BootstrapCI{}, core.ErrNoBootstrap
	}
	point, err := FitCosinor(values, timepoints, period)
	if err != nil {
		return inference.BootstrapCI{}, err
	}
	if point.IsDegenerate() {
		return inference.BootstrapCI{PointEstimate: point.Amplitude, NBootstrap: nBoot}, nil
	}

	n := len(values)
	reps := make([]float64, 0, nBoot)
	bv := make([]float64, n)
	bt := make([]float64, n)
	for b := 0; b < nBoot; b++ {
		for i := 0; i < n; i++ {
			j := stream.Intn(n)
			bv[i] = values[j]
			bt[i] = timepoints[j]
		}
		fit, err := FitCosinor(bv, bt, period)
		if err != nil {
			return inference.BootstrapCI{}, err
		}
		reps = append(reps, fit.Amplitude)
	}

	lower, upper := percentile95(reps)
	return inference.BootstrapCI{
		PointEstimate: point.Amplitude,
		Lower:         lower,
		Upper:         upper,
		Width:         upper - lower,
		NBootstrap:    nBoot,
	}, nil
}

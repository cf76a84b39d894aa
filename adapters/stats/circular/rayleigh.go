package circular

import (
	"math"

	"github.com/montanaflynn/stats"

	"gopersist/domain/core"
	"gopersist/domain/inference"
)

// RayleighTest checks a set of phase estimates (in time units of period) for
// non-uniform clustering on the circle. Fewer than two phases returns the
// neutral result p = 1.
func RayleighTest(phases []float64, period float64) (inference.CircularStatResult, error) {
	if period <= 0 {
		return inference.CircularStatResult{}, core.ErrInvalidPeriod
	}
	n := len(phases)
	if n < 2 {
		return inference.CircularStatResult{PValue: 1, N: n}, nil
	}

	omega := 2 * math.Pi / period
	var sumCos, sumSin float64
	for _, p := range phases {
		a := omega * p
		sumCos += math.Cos(a)
		sumSin += math.Sin(a)
	}
	fn := float64(n)
	meanCos := sumCos / fn
	meanSin := sumSin / fn

	r := math.Sqrt(meanCos*meanCos + meanSin*meanSin)
	if r > 1 {
		r = 1
	}
	z := fn * r * r

	p := rayleighPValue(z, fn)

	meanDir := math.Atan2(meanSin, meanCos) * period / (2 * math.Pi)
	meanDir = wrapPhase(meanDir, period)

	// Circular SD sqrt(-2 ln R), rescaled to time units; R = 0 gives +Inf,
	// reported as the full period instead.
	circSD := math.Inf(1)
	if r > 0 {
		circSD = math.Sqrt(-2*math.Log(r)) * period / (2 * math.Pi)
	}
	if math.IsInf(circSD, 1) || circSD > period {
		circSD = period
	}

	return inference.CircularStatResult{
		R:             r,
		Z:             z,
		PValue:        p,
		MeanDirection: meanDir,
		CircularSD:    circSD,
		N:             n,
	}, nil
}

// rayleighPValue is the standard large-sample asymptotic series for the
// Rayleigh statistic, kept strictly within (0,1].
func rayleighPValue(z, n float64) float64 {
	p := math.Exp(-z) * (1 + (2*z-z*z)/(4*n) - (24*z-132*z*z+76*z*z*z-9*z*z*z*z)/(288*n*n))
	if p > 1 {
		p = 1
	}
	if p < 1e-10 {
		p = 1e-10
	}
	return p
}

// percentile95 returns the 2.5th and 97.5th percentiles of a bootstrap
// replicate set; lower <= upper by construction.
func percentile95(samples []float64) (lower, upper float64) {
	if len(samples) == 0 {
		return 0, 0
	}
	lower, _ = stats.Percentile(samples, 2.5)
	upper, _ = stats.Percentile(samples, 97.5)
	if lower > upper {
		lower, upper = upper, lower
	}
	return lower, upper
}

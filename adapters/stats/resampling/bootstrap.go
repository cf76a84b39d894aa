package resampling

import (
	"math"

	"github.com/montanaflynn/stats"

	"gopersist/adapters/stats/ar2"
	"gopersist/domain/core"
	"gopersist/domain/inference"
	"gopersist/domain/series"
	"gopersist/ports"
)

// SeriesStatistic computes a scalar from a time series, e.g. the AR(2)
// dominant root modulus.
type SeriesStatistic func(values []float64) float64

// EigenvalueModulus is the canonical bootstrap statistic: refit AR(2) and
// take the dominant root modulus.
func EigenvalueModulus(values []float64) float64 {
	return ar2.FitValues(values).EigenvalueModulus
}

// BlockBootstrap estimates a 95% percentile interval for stat by resampling
// contiguous blocks with replacement until a series of the original length is
// assembled. Blocks (rather than single points) preserve the autocorrelation
// the statistic depends on. blockSize 0 selects floor(sqrt(n)); a block size
// that cannot tile the series errors as a caller defect. A series too short
// to resample returns a zero-width interval around the point estimate.
func BlockBootstrap(values []float64, blockSize, nBoot int, stream ports.RNG, stat SeriesStatistic) (inference.BootstrapCI, error) {
	if nBoot <= 0 {
		return inference.BootstrapCI{}, core.ErrNoBootstrap
	}
	if stat == nil {
		stat = EigenvalueModulus
	}
	n := len(values)
	point := stat(values)
	if n < 2 {
		return inference.BootstrapCI{PointEstimate: point, Lower: point, Upper: point, NBootstrap: nBoot}, nil
	}

	if blockSize == 0 {
		blockSize = int(math.Floor(math.Sqrt(float64(n))))
		if blockSize < 1 {
			blockSize = 1
		}
	}
	if blockSize < 0 || blockSize > n {
		return inference.BootstrapCI{}, core.ErrInvalidBlockSize
	}

	reps := make([]float64, nBoot)
	synthetic := make([]float64, 0, n+blockSize)
	for b := 0; b < nBoot; b++ {
		synthetic = synthetic[:0]
		for len(synthetic) < n {
			start := stream.Intn(n - blockSize + 1)
			synthetic = append(synthetic, values[start:start+blockSize]...)
		}
		reps[b] = stat(synthetic[:n])
	}

	lower, upper := percentile95(reps)
	return inference.BootstrapCI{
		PointEstimate: point,
		Lower:         lower,
		Upper:         upper,
		Width:         upper - lower,
		NBootstrap:    nBoot,
	}, nil
}

// ResidualBlockBootstrap preserves autocorrelation the model-based way: fit
// AR(2) once, block-resample the residuals and replay the recursion to build
// each replicate. Degenerate fits fall back to a zero-width interval.
func ResidualBlockBootstrap(values []float64, blockSize, nBoot int, stream ports.RNG, stat SeriesStatistic) (inference.BootstrapCI, error) {
	if nBoot <= 0 {
		return inference.BootstrapCI{}, core.ErrNoBootstrap
	}
	if stat == nil {
		stat = EigenvalueModulus
	}

	ts := series.TimeSeries{Values: values}
	fit := ar2.Fit(ts)
	point := stat(values)
	if fit.IsDegenerate() {
		return inference.BootstrapCI{PointEstimate: point, Lower: point, Upper: point, NBootstrap: nBoot}, nil
	}

	resid := ar2.Residuals(ts, fit)
	m := len(resid)
	if blockSize == 0 {
		blockSize = int(math.Floor(math.Sqrt(float64(m))))
		if blockSize < 1 {
			blockSize = 1
		}
	}
	if blockSize < 0 || blockSize > m {
		return inference.BootstrapCI{}, core.ErrInvalidBlockSize
	}

	n := len(values)
	mean := ts.Mean()
	y := ts.Centered()

	reps := make([]float64, nBoot)
	innov := make([]float64, n)
	replayed := make([]float64, n)
	for b := 0; b < nBoot; b++ {
		innov[0], innov[1] = y[0], y[1]
		idx := 2
		for idx < n {
			start := stream.Intn(m - blockSize + 1)
			for k := 0; k < blockSize && idx < n; k++ {
				innov[idx] = resid[start+k]
				idx++
			}
		}
		centered := ar2.Replay(fit, innov)
		for i := range centered {
			replayed[i] = centered[i] + mean
		}
		reps[b] = stat(replayed)
	}

	lower, upper := percentile95(reps)
	return inference.BootstrapCI{
		PointEstimate: point,
		Lower:         lower,
		Upper:         upper,
		Width:         upper - lower,
		NBootstrap:    nBoot,
	}, nil
}

// percentile95 returns the 2.5th/97.5th percentiles; lower <= upper by
// construction.
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

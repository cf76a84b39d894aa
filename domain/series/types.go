// Package series defines the expression time-series value object shared by
// every analysis. A TimeSeries is immutable once constructed; operations
// that need a transformed view (centering) allocate fresh slices.
package series

import (
	"gopersist/domain/core"
)

// Minimum lengths required by the fitting routines. Shorter series are not
// errors: the fitters return degenerate values and aggregates skip them.
const (
	MinAR2Len     = 5
	MinCosinorLen = 6
)

// TimeSeries is an ordered sequence of expression observations, optionally
// paired with timepoints for phase analysis.
type TimeSeries struct {
	Gene       core.GeneKey
	Category   string // e.g. "disease", "control", "circadian"
	Values     []float64
	Timepoints []float64 // optional; len 0 or len(Values)
}

// New builds a TimeSeries over values with implicit unit-spaced timepoints.
func New(gene core.GeneKey, values []float64) TimeSeries {
	return TimeSeries{Gene: gene, Values: values}
}

// Len returns the number of observations.
func (ts TimeSeries) Len() int {
	return len(ts.Values)
}

// HasTimepoints reports whether explicit timepoints are attached.
func (ts TimeSeries) HasTimepoints() bool {
	return len(ts.Timepoints) == len(ts.Values) && len(ts.Timepoints) > 0
}

// Mean returns the arithmetic mean, 0 for an empty series.
func (ts TimeSeries) Mean() float64 {
	if len(ts.Values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range ts.Values {
		sum += v
	}
	return sum / float64(len(ts.Values))
}

// Centered returns a copy of the values with the mean subtracted.
func (ts TimeSeries) Centered() []float64 {
	m := ts.Mean()
	out := make([]float64, len(ts.Values))
	for i, v := range ts.Values {
		out[i] = v - m
	}
	return out
}

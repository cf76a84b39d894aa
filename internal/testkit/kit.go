// Package testkit provides deterministic synthetic data generators and
// in-memory port implementations used across the test suites and the dev
// entrypoints. Nothing here touches the filesystem or network.
package testkit

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"gopersist/domain/core"
	"gopersist/domain/screen"
	"gopersist/domain/series"
	"gopersist/ports"
)

// Normal draws a standard normal variate from the stream via Box-Muller.
func Normal(rng ports.RNG) float64 {
	u1 := rng.Next()
	for u1 == 0 {
		u1 = rng.Next()
	}
	u2 := rng.Next()
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

// AR2Series simulates a stationary AR(2) process with Gaussian innovations.
// A 100-sample burn-in discards the influence of the zero initial state.
func AR2Series(phi1, phi2 float64, n int, sigma float64, rng ports.RNG) []float64 {
	const burnIn = 100
	total := n + burnIn
	buf := make([]float64, total)
	for t := 2; t < total; t++ {
		buf[t] = phi1*buf[t-1] + phi2*buf[t-2] + sigma*Normal(rng)
	}
	out := make([]float64, n)
	copy(out, buf[burnIn:])
	return out
}

// Sinusoid samples mesor + amplitude*cos(2*pi*(t+phase)/period) at unit
// steps, returning values and timepoints. The phase parameter follows the
// cosinor convention (atan2(-gamma, beta) scaled to time units), so a fit of
// the output recovers it directly.
func Sinusoid(n int, period, amplitude, phase, mesor float64) (values, timepoints []float64) {
	values = make([]float64, n)
	timepoints = make([]float64, n)
	for i := 0; i < n; i++ {
		t := float64(i)
		timepoints[i] = t
		values[i] = mesor + amplitude*math.Cos(2*math.Pi*(t+phase)/period)
	}
	return values, timepoints
}

// InMemoryExpression is an ExpressionRepository backed by a map, for tests
// and the dev CLI.
type InMemoryExpression struct {
	datasets map[core.DatasetID]map[core.GeneKey]series.TimeSeries
}

// NewInMemoryExpression creates an empty in-memory expression repository.
func NewInMemoryExpression() *InMemoryExpression {
	return &InMemoryExpression{
		datasets: make(map[core.DatasetID]map[core.GeneKey]series.TimeSeries),
	}
}

// Add registers a series under a dataset.
func (m *InMemoryExpression) Add(dataset core.DatasetID, ts series.TimeSeries) {
	if m.datasets[dataset] == nil {
		m.datasets[dataset] = make(map[core.GeneKey]series.TimeSeries)
	}
	m.datasets[dataset][ts.Gene] = ts
}

// Genes lists gene keys in deterministic (sorted) order.
func (m *InMemoryExpression) Genes(_ context.Context, dataset core.DatasetID) ([]core.GeneKey, error) {
	genes, ok := m.datasets[dataset]
	if !ok {
		return nil, core.ErrUnknownDataset
	}
	keys := make([]core.GeneKey, 0, len(genes))
	for k := range genes {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys, nil
}

// Series returns one gene's trajectory.
func (m *InMemoryExpression) Series(_ context.Context, dataset core.DatasetID, gene core.GeneKey) (series.TimeSeries, error) {
	genes, ok := m.datasets[dataset]
	if !ok {
		return series.TimeSeries{}, core.ErrUnknownDataset
	}
	ts, ok := genes[gene]
	if !ok {
		return series.TimeSeries{}, core.ErrUnknownGene
	}
	return ts, nil
}

// AllSeries returns every trajectory of a dataset.
func (m *InMemoryExpression) AllSeries(_ context.Context, dataset core.DatasetID) (map[core.GeneKey]series.TimeSeries, error) {
	genes, ok := m.datasets[dataset]
	if !ok {
		return nil, core.ErrUnknownDataset
	}
	out := make(map[core.GeneKey]series.TimeSeries, len(genes))
	for k, v := range genes {
		out[k] = v
	}
	return out, nil
}

// InMemoryLedger is a ResultLedger backed by maps, safe for concurrent use.
type InMemoryLedger struct {
	mu      sync.RWMutex
	screens map[core.RunID]*screen.Result
}

// NewInMemoryLedger creates an empty in-memory ledger.
func NewInMemoryLedger() *InMemoryLedger {
	return &InMemoryLedger{screens: make(map[core.RunID]*screen.Result)}
}

func (l *InMemoryLedger) SaveScreen(_ context.Context, result *screen.Result) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.screens[result.RunID] = result
	return nil
}

func (l *InMemoryLedger) GetScreen(_ context.Context, runID core.RunID) (*screen.Result, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	res, ok := l.screens[runID]
	if !ok {
		return nil, core.ErrRecordNotFound
	}
	return res, nil
}

func (l *InMemoryLedger) ListScreens(_ context.Context, dataset core.DatasetID) ([]core.RunID, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := make([]core.RunID, 0)
	for id, res := range l.screens {
		if res.Dataset == dataset {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })
	return ids, nil
}

func (l *InMemoryLedger) PruneBefore(_ context.Context, cutoff time.Time) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var removed int64
	for id, res := range l.screens {
		if res.CompletedAt.Time().Before(cutoff) {
			delete(l.screens, id)
			removed++
		}
	}
	return removed, nil
}

package ports

import (
	"context"

	"gopersist/domain/core"
	"gopersist/domain/series"
)

// ExpressionRepository is the ingestion collaborator's contract: it hands the
// engine per-gene time series plus category tags. Parsing, gene-symbol
// resolution and caching all live behind this port, never in the core.
type ExpressionRepository interface {
	// Genes lists every gene key in a dataset
	Genes(ctx context.Context, dataset core.DatasetID) ([]core.GeneKey, error)

	// Series returns the expression trajectory for one gene
	Series(ctx context.Context, dataset core.DatasetID, gene core.GeneKey) (series.TimeSeries, error)

	// AllSeries returns every trajectory of a dataset keyed by gene
	AllSeries(ctx context.Context, dataset core.DatasetID) (map[core.GeneKey]series.TimeSeries, error)
}

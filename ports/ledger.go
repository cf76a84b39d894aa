package ports

import (
	"context"
	"time"

	"gopersist/domain/core"
	"gopersist/domain/screen"
)

// ResultLedger persists completed screen runs. The engine never writes
// through it directly; the app services own when and whether to save.
type ResultLedger interface {
	// SaveScreen stores one completed persistence screen run
	SaveScreen(ctx context.Context, result *screen.Result) error

	// GetScreen retrieves a stored run by ID
	GetScreen(ctx context.Context, runID core.RunID) (*screen.Result, error)

	// ListScreens lists stored run IDs for a dataset, newest first
	ListScreens(ctx context.Context, dataset core.DatasetID) ([]core.RunID, error)

	// PruneBefore deletes runs completed before the cutoff and reports how
	// many were removed
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Package postgres persists completed analysis runs. One row per run; the
// full result payload is stored as JSONB so the schema never chases the
// analysis record shapes.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"gopersist/domain/core"
	"gopersist/domain/screen"
	"gopersist/ports"
)

// Schema creates the screen_runs table. Entrypoints apply it at startup;
// CREATE TABLE IF NOT EXISTS keeps it idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS screen_runs (
	run_id       TEXT PRIMARY KEY,
	dataset      TEXT NOT NULL,
	seed         BIGINT NOT NULL,
	payload      JSONB NOT NULL,
	completed_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_screen_runs_dataset ON screen_runs (dataset, completed_at DESC);
`

// Ledger is the postgres-backed ResultLedger.
type Ledger struct {
	db *sqlx.DB
}

var _ ports.ResultLedger = (*Ledger)(nil)

// Connect opens the database, verifies the connection and applies the schema.
func Connect(databaseURL string) (*Ledger, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply ledger schema: %w", err)
	}
	return &Ledger{db: db}, nil
}

// NewLedger wraps an existing connection without touching the schema.
func NewLedger(db *sqlx.DB) *Ledger {
	return &Ledger{db: db}
}

// Close releases the underlying connection pool.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// SaveScreen stores one completed persistence screen run.
func (l *Ledger) SaveScreen(ctx context.Context, result *screen.Result) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal screen result: %w", err)
	}

	query := `
		INSERT INTO screen_runs (run_id, dataset, seed, payload, completed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (run_id) DO UPDATE SET payload = EXCLUDED.payload`

	_, err = l.db.ExecContext(ctx, query,
		string(result.RunID),
		string(result.Dataset),
		result.Seed,
		payload,
		result.CompletedAt.Time(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert screen run: %w", err)
	}
	return nil
}

// GetScreen retrieves a stored run by ID.
func (l *Ledger) GetScreen(ctx context.Context, runID core.RunID) (*screen.Result, error) {
	query := `SELECT payload FROM screen_runs WHERE run_id = $1`

	var payload []byte
	err := l.db.QueryRowContext(ctx, query, string(runID)).Scan(&payload)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: run %s", core.ErrRecordNotFound, runID)
		}
		return nil, fmt.Errorf("failed to get screen run: %w", err)
	}

	var result screen.Result
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal screen run: %w", err)
	}
	return &result, nil
}

// ListScreens lists stored run IDs for a dataset, newest first.
func (l *Ledger) ListScreens(ctx context.Context, dataset core.DatasetID) ([]core.RunID, error) {
	query := `
		SELECT run_id FROM screen_runs
		WHERE dataset = $1
		ORDER BY completed_at DESC`

	rows, err := l.db.QueryContext(ctx, query, string(dataset))
	if err != nil {
		return nil, fmt.Errorf("failed to list screen runs: %w", err)
	}
	defer rows.Close()

	var ids []core.RunID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan run id: %w", err)
		}
		ids = append(ids, core.RunID(id))
	}
	return ids, rows.Err()
}

// PruneBefore deletes runs completed before the cutoff and reports how many
// rows went away.
func (l *Ledger) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := l.db.ExecContext(ctx, `DELETE FROM screen_runs WHERE completed_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune screen runs: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

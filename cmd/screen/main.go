// The screen binary runs the full batch analysis over one expression matrix
// and writes the results as JSON to stdout: the persistence screen always,
// the phase-gating analysis when -phase is set.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"gopersist/adapters/excel"
	"gopersist/adapters/postgres"
	"gopersist/app"
	"gopersist/internal"
	"gopersist/internal/config"
	"gopersist/ports"
)

func main() {
	var (
		file      = flag.String("file", "", "expression matrix (.xlsx or .csv); overrides EXPRESSION_FILE")
		runPhase  = flag.Bool("phase", false, "also run the phase-gating analysis")
		save      = flag.Bool("save", false, "persist the screen run to the result ledger")
		pruneDays = flag.Int("prune-days", 0, "before running, delete ledger runs older than this many days")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := internal.DefaultLogger

	path := cfg.Data.ExpressionFile
	if *file != "" {
		path = *file
	}
	if path == "" {
		log.Fatal("no expression matrix: pass -file or set EXPRESSION_FILE")
	}

	repo := excel.NewRepository(path, cfg.Data.CategoryColumn, logger)
	if err := repo.Load(); err != nil {
		log.Fatalf("load expression matrix: %v", err)
	}

	var ledger ports.ResultLedger
	if *save || *pruneDays > 0 {
		if !cfg.Database.Enabled {
			log.Fatal("-save and -prune-days require DATABASE_URL")
		}
		pg, err := postgres.Connect(cfg.Database.URL)
		if err != nil {
			log.Fatalf("ledger: %v", err)
		}
		defer pg.Close()
		ledger = pg
	}

	ctx := context.Background()

	if *pruneDays > 0 {
		cutoff := time.Now().AddDate(0, 0, -*pruneDays)
		removed, err := ledger.PruneBefore(ctx, cutoff)
		if err != nil {
			log.Fatalf("prune ledger: %v", err)
		}
		logger.Info("ledger: pruned %d runs completed before %s", removed, cutoff.Format(time.RFC3339))
	}
	out := struct {
		Screen interface{} `json:"screen"`
		Phase  interface{} `json:"phase,omitempty"`
	}{}

	screenSvc := app.NewScreenService(repo, ledger, logger, app.ScreenConfig{
		BaseSeed:        cfg.Analysis.BaseSeed,
		NPermutations:   cfg.Analysis.NPermutations,
		NBootstrap:      cfg.Analysis.NBootstrap,
		CaseCategory:    cfg.Analysis.CaseCategory,
		ControlCategory: cfg.Analysis.ControlCategory,
		SaveResults:     *save,
	})
	screenResult, err := screenSvc.Run(ctx, repo.Dataset())
	if err != nil {
		log.Fatalf("screen: %v", err)
	}
	out.Screen = screenResult

	if *runPhase {
		phaseSvc := app.NewPhaseService(repo, logger, app.PhaseConfig{
			Period:     cfg.Analysis.CosinorPeriod,
			MinR2:      cfg.Analysis.MinCosinorR2,
			BaseSeed:   cfg.Analysis.BaseSeed,
			NBootstrap: cfg.Analysis.NBootstrap,
		})
		phaseResult, err := phaseSvc.Run(ctx, repo.Dataset())
		if err != nil {
			log.Fatalf("phase: %v", err)
		}
		out.Phase = phaseResult
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatalf("encode results: %v", err)
	}
}

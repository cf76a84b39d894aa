// gopersist serves the analysis engine over HTTP. It loads one expression
// matrix at startup and exposes the screen, phase and ad-hoc fit endpoints;
// a DATABASE_URL enables the persistent result ledger.
package main

import (
	"log"
	"net/http"

	"gopersist/adapters/api"
	"gopersist/adapters/excel"
	"gopersist/adapters/postgres"
	"gopersist/app"
	"gopersist/internal"
	"gopersist/internal/config"
	"gopersist/ports"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := internal.DefaultLogger

	if cfg.Data.ExpressionFile == "" {
		log.Fatal("EXPRESSION_FILE is required")
	}
	repo := excel.NewRepository(cfg.Data.ExpressionFile, cfg.Data.CategoryColumn, logger)
	if err := repo.Load(); err != nil {
		log.Fatalf("load expression matrix: %v", err)
	}

	var ledger ports.ResultLedger
	if cfg.Database.Enabled {
		pg, err := postgres.Connect(cfg.Database.URL)
		if err != nil {
			log.Fatalf("ledger: %v", err)
		}
		defer pg.Close()
		ledger = pg
		logger.Info("result ledger enabled")
	}

	screenSvc := app.NewScreenService(repo, ledger, logger, app.ScreenConfig{
		BaseSeed:        cfg.Analysis.BaseSeed,
		NPermutations:   cfg.Analysis.NPermutations,
		NBootstrap:      cfg.Analysis.NBootstrap,
		CaseCategory:    cfg.Analysis.CaseCategory,
		ControlCategory: cfg.Analysis.ControlCategory,
		SaveResults:     ledger != nil,
	})
	phaseSvc := app.NewPhaseService(repo, logger, app.PhaseConfig{
		Period:     cfg.Analysis.CosinorPeriod,
		MinR2:      cfg.Analysis.MinCosinorR2,
		BaseSeed:   cfg.Analysis.BaseSeed,
		NBootstrap: cfg.Analysis.NBootstrap,
	})

	server := api.NewServer(screenSvc, phaseSvc, ledger, logger)

	logger.Info("api listening on :%s (dataset %s)", cfg.Server.Port, repo.Dataset())
	if err := http.ListenAndServe(":"+cfg.Server.Port, server); err != nil {
		log.Fatalf("server: %v", err)
	}
}

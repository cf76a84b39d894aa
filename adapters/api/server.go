// Package api exposes the analysis services over HTTP as a small JSON API.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"gopersist/adapters/stats/ar2"
	"gopersist/domain/core"
	"gopersist/domain/dynamics"
	"gopersist/domain/screen"
	"gopersist/domain/series"
	"gopersist/internal"
	"gopersist/ports"
)

// ScreenRunner runs one persistence screen over a dataset.
type ScreenRunner interface {
	Run(ctx context.Context, dataset core.DatasetID) (*screen.Result, error)
}

// PhaseRunner runs one phase-gating analysis over a dataset.
type PhaseRunner interface {
	Run(ctx context.Context, dataset core.DatasetID) (*screen.PhaseResult, error)
}

// Server is the HTTP surface over the analysis services.
type Server struct {
	router *chi.Mux
	logger *internal.Logger

	screen ScreenRunner
	phase  PhaseRunner
	ledger ports.ResultLedger // optional, nil disables the runs endpoints
}

// NewServer wires the routes. ledger may be nil.
func NewServer(screenSvc ScreenRunner, phaseSvc PhaseRunner, ledger ports.ResultLedger, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	s := &Server{
		router: chi.NewRouter(),
		logger: logger,
		screen: screenSvc,
		phase:  phaseSvc,
		ledger: ledger,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Post("/v1/fit", s.handleFit)
	s.router.Post("/v1/screen", s.handleScreen)
	s.router.Post("/v1/phase", s.handlePhase)
	s.router.Get("/v1/runs", s.handleListRuns)
	s.router.Get("/v1/runs/{id}", s.handleGetRun)
}

// ServeHTTP makes Server a http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// fitRequest carries one raw series for an ad-hoc fit.
type fitRequest struct {
	Gene   string    `json:"gene"`
	Values []float64 `json:"values"`
}

type fitResponse struct {
	Gene      string                  `json:"gene,omitempty"`
	Fit       dynamics.AR2Fit         `json:"fit"`
	Stability dynamics.StabilityClass `json:"stability"`
	Root      dynamics.RootPolar      `json:"root"`
}

func (s *Server) handleFit(w http.ResponseWriter, r *http.Request) {
	var req fitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ts := series.New(core.GeneKey(req.Gene), req.Values)
	fit := ar2.Fit(ts)
	s.writeJSON(w, http.StatusOK, fitResponse{
		Gene:      req.Gene,
		Fit:       fit,
		Stability: fit.Stability(),
		Root:      ar2.Roots(fit.Phi1, fit.Phi2),
	})
}

type runRequest struct {
	Dataset string `json:"dataset"`
}

func (s *Server) handleScreen(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Dataset == "" {
		s.writeError(w, http.StatusBadRequest, "dataset is required")
		return
	}

	result, err := s.screen.Run(r.Context(), core.DatasetID(req.Dataset))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handlePhase(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Dataset == "" {
		s.writeError(w, http.StatusBadRequest, "dataset is required")
		return
	}

	result, err := s.phase.Run(r.Context(), core.DatasetID(req.Dataset))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.ledger == nil {
		s.writeError(w, http.StatusNotFound, "result ledger not configured")
		return
	}
	dataset := r.URL.Query().Get("dataset")
	if dataset == "" {
		s.writeError(w, http.StatusBadRequest, "dataset query parameter is required")
		return
	}

	ids, err := s.ledger.ListScreens(r.Context(), core.DatasetID(dataset))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"dataset": dataset, "run_ids": ids})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.ledger == nil {
		s.writeError(w, http.StatusNotFound, "result ledger not configured")
		return
	}
	runID := chi.URLParam(r, "id")

	result, err := s.ledger.GetScreen(r.Context(), core.RunID(runID))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

// writeServiceError maps domain sentinels onto HTTP statuses.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case core.IsNotFoundError(err):
		s.writeError(w, http.StatusNotFound, err.Error())
	case core.IsCallerError(err):
		s.writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("api: %v", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("api: encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

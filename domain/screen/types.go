// Package screen defines the artifact records emitted by the analysis
// services and consumed by the presentation and storage collaborators.
package screen

import (
	"gopersist/domain/core"
	"gopersist/domain/dynamics"
	"gopersist/domain/inference"
)

// GeneRecord is the per-gene outcome of a persistence screen.
type GeneRecord struct {
	Gene      core.GeneKey            `json:"gene"`
	Category  string                  `json:"category"`
	Fit       dynamics.AR2Fit         `json:"fit"`
	Stability dynamics.StabilityClass `json:"stability"`
	PValue    float64                 `json:"p_value,omitempty"`
	QValue    float64                 `json:"q_value,omitempty"`
	ModulusCI *inference.BootstrapCI  `json:"modulus_ci,omitempty"`
}

// Result is one completed persistence screen run.
type Result struct {
	RunID              core.RunID                      `json:"run_id"`
	Dataset            core.DatasetID                  `json:"dataset"`
	Seed               int64                           `json:"seed"`
	Genes              []GeneRecord                    `json:"genes"`
	GroupTest          inference.PermutationTestResult `json:"group_test"`
	RankTest           inference.RankTestResult        `json:"rank_test"`
	FDR                inference.FDRResult             `json:"fdr"`
	ExcludedDegenerate int                             `json:"excluded_degenerate"`
	CompletedAt        core.Timestamp                  `json:"completed_at"`
}

// PhaseRecord is the per-gene outcome of a phase-gating analysis.
type PhaseRecord struct {
	Gene        core.GeneKey           `json:"gene"`
	Fit         inference.CosinorFit   `json:"fit"`
	AmplitudeCI *inference.BootstrapCI `json:"amplitude_ci,omitempty"`
}

// PhaseResult is one completed phase-gating run.
type PhaseResult struct {
	RunID       core.RunID                   `json:"run_id"`
	Dataset     core.DatasetID               `json:"dataset"`
	Period      float64                      `json:"period"`
	Genes       []PhaseRecord                `json:"genes"`
	Clustering  inference.CircularStatResult `json:"clustering"`
	CompletedAt core.Timestamp               `json:"completed_at"`
}

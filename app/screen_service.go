// Package app wires the statistical engine into the analyses the
// collaborators call: the persistence screen and the phase-gating analysis.
// Services hold no mutable state of their own; everything a run produces is
// a function of the dataset and the base seed.
package app

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"gopersist/adapters/rng"
	"gopersist/adapters/stats/ar2"
	"gopersist/adapters/stats/rank"
	"gopersist/adapters/stats/resampling"
	"gopersist/domain/core"
	"gopersist/domain/dynamics"
	"gopersist/domain/inference"
	"gopersist/domain/screen"
	"gopersist/domain/series"
	"gopersist/internal"
	"gopersist/ports"
)

// ScreenConfig parameterizes one persistence screen.
type ScreenConfig struct {
	BaseSeed        int64
	NPermutations   int
	NBootstrap      int // 0 skips per-gene modulus intervals
	CaseCategory    string
	ControlCategory string
	SaveResults     bool
}

// ScreenService runs the persistence screen: AR(2) fit per gene, a
// permutation test of the case/control modulus gap, and per-gene
// surrogate-null p-values corrected by BH-FDR.
type ScreenService struct {
	repo   ports.ExpressionRepository
	ledger ports.ResultLedger // optional
	logger *internal.Logger
	cfg    ScreenConfig
}

// NewScreenService builds a screen service; ledger may be nil when results
// are not persisted.
func NewScreenService(repo ports.ExpressionRepository, ledger ports.ResultLedger, logger *internal.Logger, cfg ScreenConfig) *ScreenService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &ScreenService{repo: repo, ledger: ledger, logger: logger, cfg: cfg}
}

// Run executes the screen over one dataset. Genes are processed in sorted
// key order with one derived RNG stream per gene index, so the result is
// bit-reproducible regardless of goroutine scheduling.
func (s *ScreenService) Run(ctx context.Context, dataset core.DatasetID) (*screen.Result, error) {
	if s.cfg.NPermutations <= 0 {
		return nil, core.ErrNoPermutations
	}
	if s.cfg.CaseCategory == "" || s.cfg.ControlCategory == "" ||
		s.cfg.CaseCategory == s.cfg.ControlCategory {
		return nil, fmt.Errorf("%w: case=%q control=%q",
			core.ErrInvalidGroups, s.cfg.CaseCategory, s.cfg.ControlCategory)
	}

	all, err := s.repo.AllSeries(ctx, dataset)
	if err != nil {
		return nil, err
	}

	genes := make([]core.GeneKey, 0, len(all))
	for g := range all {
		genes = append(genes, g)
	}
	sort.Slice(genes, func(i, j int) bool { return genes[i] < genes[j] })

	s.logger.Info("screen: dataset=%s genes=%d permutations=%d seed=%d",
		dataset, len(genes), s.cfg.NPermutations, s.cfg.BaseSeed)

	src := rng.NewSource(s.cfg.BaseSeed)

	// Stream 0 is reserved for the group test; gene i uses stream i+1.
	records := make([]screen.GeneRecord, len(genes))
	pValues := make([]float64, len(genes))

	eg, _ := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.NumCPU())
	for i, gene := range genes {
		i, gene := i, gene
		eg.Go(func() error {
			ts := all[gene]
			fit := ar2.Fit(ts)
			records[i] = screen.GeneRecord{
				Gene:      gene,
				Category:  ts.Category,
				Fit:       fit,
				Stability: fit.Stability(),
			}
			stream := src.Stream(i + 1)
			pValues[i] = s.surrogatePValue(ts, fit, stream)
			records[i].PValue = pValues[i]
			if s.cfg.NBootstrap > 0 && fit.Usable() {
				ci, err := resampling.ResidualBlockBootstrap(ts.Values, 0, s.cfg.NBootstrap, stream, nil)
				if err != nil {
					return err
				}
				records[i].ModulusCI = &ci
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	excluded := 0
	moduli := make([]float64, 0, len(records))
	labels := make([]int, 0, len(records))
	var controlModuli, caseModuli []float64
	for _, rec := range records {
		if !rec.Fit.Usable() {
			excluded++
			continue
		}
		switch rec.Category {
		case s.cfg.ControlCategory:
			moduli = append(moduli, rec.Fit.EigenvalueModulus)
			labels = append(labels, 0)
			controlModuli = append(controlModuli, rec.Fit.EigenvalueModulus)
		case s.cfg.CaseCategory:
			moduli = append(moduli, rec.Fit.EigenvalueModulus)
			labels = append(labels, 1)
			caseModuli = append(caseModuli, rec.Fit.EigenvalueModulus)
		}
	}

	groupTest, err := resampling.PermutationTest(moduli, labels, resampling.TwoGroupMeanDiff, s.cfg.NPermutations, src.Stream(0))
	if err != nil {
		return nil, err
	}
	mwu := rank.MannWhitneyU(caseModuli, controlModuli)

	fdr, err := resampling.BenjaminiHochberg(pValues)
	if err != nil {
		return nil, err
	}
	for i := range records {
		records[i].QValue = fdr.QValues[i]
	}

	result := &screen.Result{
		RunID:              core.RunID(core.NewID()),
		Dataset:            dataset,
		Seed:               s.cfg.BaseSeed,
		Genes:              records,
		GroupTest:          groupTest,
		RankTest:           inference.RankTestResult{U: mwu.U, Z: mwu.Z, PValue: mwu.PValue},
		FDR:                fdr,
		ExcludedDegenerate: excluded,
		CompletedAt:        core.Now(),
	}

	s.logger.Info("screen: dataset=%s group_p=%.4g significant_q05=%d excluded=%d",
		dataset, groupTest.PValue, fdr.SignificantAt(0.05), excluded)

	if s.cfg.SaveResults && s.ledger != nil {
		if err := s.ledger.SaveScreen(ctx, result); err != nil {
			s.logger.Warn("screen: ledger save failed: %v", err)
		}
	}
	return result, nil
}

// surrogatePValue tests one gene's modulus against its phase-randomized
// null: same power spectrum, scrambled phase. Unusable fits are
// uninformative and report p = 1.
func (s *ScreenService) surrogatePValue(ts series.TimeSeries, fit dynamics.AR2Fit, stream ports.RNG) float64 {
	if !fit.Usable() {
		return 1
	}
	n := s.cfg.NPermutations
	extreme := 0
	for i := 0; i < n; i++ {
		surr := ar2.PhaseRandomize(ts.Values, stream)
		if ar2.FitValues(surr).EigenvalueModulus >= fit.EigenvalueModulus {
			extreme++
		}
	}
	return float64(extreme+1) / float64(n+1)
}

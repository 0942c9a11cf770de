package strategy

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/striep/edatune/internal/objective"
	"github.com/striep/edatune/internal/param"
	"github.com/striep/edatune/internal/projectdb"
	"github.com/striep/edatune/internal/tune"
)

// TransferConfig holds transfer-learning configuration.
type TransferConfig struct {
	// MaxSources caps how many similar projects seed the run.
	MaxSources int

	// MinSimilarity drops weaker matches before blending.
	MinSimilarity float64

	// BudgetFraction scales the requested budget for the seeded run;
	// most of the search work is presumed done by the sources.
	BudgetFraction float64

	Bayesian BayesianConfig
}

// DefaultTransferConfig returns default transfer-learning configuration.
func DefaultTransferConfig() TransferConfig {
	return TransferConfig{
		MaxSources:     3,
		MinSimilarity:  0.3,
		BudgetFraction: 0.3,
		Bayesian:       DefaultBayesianConfig(),
	}
}

// Transfer seeds a shortened Bayesian run from the best configurations
// of contextually similar past projects.
type Transfer struct {
	cfg      TransferConfig
	store    projectdb.Store
	bayesian *Bayesian
	logger   *slog.Logger
}

// NewTransfer creates a transfer-learning strategy.
func NewTransfer(cfg TransferConfig, store projectdb.Store, ev tune.Evaluator, agg objective.Aggregator, logger *slog.Logger) (*Transfer, error) {
	if store == nil {
		return nil, fmt.Errorf("transfer learning needs a project store")
	}
	def := DefaultTransferConfig()
	if cfg.MaxSources <= 0 {
		cfg.MaxSources = def.MaxSources
	}
	if cfg.MinSimilarity <= 0 {
		cfg.MinSimilarity = def.MinSimilarity
	}
	if cfg.BudgetFraction <= 0 {
		cfg.BudgetFraction = def.BudgetFraction
	}
	if logger == nil {
		logger = slog.Default()
	}
	bayesian, err := NewBayesian(cfg.Bayesian, ev, agg, logger)
	if err != nil {
		return nil, err
	}
	return &Transfer{
		cfg:      cfg,
		store:    store,
		bayesian: bayesian,
		logger:   logger,
	}, nil
}

// Name returns the strategy name.
func (s *Transfer) Name() string {
	return string(TypeTransfer)
}

// Optimize looks up similar projects, blends their best configurations
// into a seed and runs a shortened Bayesian pass starting from it. With
// no usable source the full budget goes to a cold-start run.
func (s *Transfer) Optimize(ctx context.Context, req *tune.Request) (*tune.Result, error) {
	matches, err := s.findSources(ctx, req)
	if err != nil {
		s.logger.Warn("similarity lookup failed, using cold start", "error", err)
		matches = nil
	}

	if len(matches) == 0 {
		s.logger.Info("no similar projects, cold start with full budget",
			"tool", req.Tool, "project", req.ProjectID)
		res, err := s.bayesian.Optimize(ctx, req)
		if err != nil {
			return nil, err
		}
		res.Notes = append(res.Notes, "cold start: no similar projects")
		return res, nil
	}

	seed, sources := s.blendSeed(req, matches)
	seeded := *req
	seeded.Initial = seed
	seeded.MaxIterations = shortBudget(req.MaxIterations, s.cfg.BudgetFraction)

	s.logger.Info("seeding from similar projects",
		"tool", req.Tool,
		"project", req.ProjectID,
		"sources", len(sources),
		"budget", seeded.MaxIterations)

	res, err := s.bayesian.Optimize(ctx, &seeded)
	if err != nil {
		return nil, err
	}
	res.SeedSources = sources
	res.Notes = append(res.Notes, fmt.Sprintf("seeded from %d similar projects", len(sources)))
	return res, nil
}

// findSources queries the project database and drops matches that are
// too weak or have nothing to contribute.
func (s *Transfer) findSources(ctx context.Context, req *tune.Request) ([]projectdb.Match, error) {
	matches, err := s.store.FindSimilar(ctx, req.Tool, req.Context, s.cfg.MaxSources)
	if err != nil {
		return nil, err
	}
	var kept []projectdb.Match
	for _, m := range matches {
		if m.Similarity < s.cfg.MinSimilarity {
			continue
		}
		if m.Record == nil || len(m.Record.Best) == 0 {
			continue
		}
		kept = append(kept, m)
	}
	return kept, nil
}

// blendSeed builds the seed configuration with similarity weights
// normalized to sum to one, and the provenance that goes into the
// result.
func (s *Transfer) blendSeed(req *tune.Request, matches []projectdb.Match) (param.Configuration, []tune.SeedSource) {
	total := 0.0
	for _, m := range matches {
		total += m.Similarity
	}

	sources := make([]tune.SeedSource, 0, len(matches))
	weighted := make([]weightedConfig, 0, len(matches))
	for _, m := range matches {
		w := m.Similarity / total
		weighted = append(weighted, weightedConfig{config: m.Record.Best, weight: w})
		sources = append(sources, tune.SeedSource{
			ProjectID:  m.Record.ID,
			Similarity: m.Similarity,
			Weight:     w,
		})
	}
	return blendConfigs(req.Space, weighted, req.Initial), sources
}

// shortBudget scales the iteration budget for a seeded run, never below
// a single iteration.
func shortBudget(budget int, fraction float64) int {
	if fraction <= 0 || fraction >= 1 {
		return budget
	}
	short := int(fraction * float64(budget))
	if short < 1 {
		return 1
	}
	return short
}

package strategy

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/striep/edatune/internal/objective"
	"github.com/striep/edatune/internal/tune"
)

// RandomConfig holds random-search configuration.
type RandomConfig struct {
	Tolerance              float64
	MaxConsecutiveFailures int
	Seed                   int64
}

// DefaultRandomConfig returns default random-search configuration.
func DefaultRandomConfig() RandomConfig {
	return RandomConfig{
		Tolerance:              1e-3,
		MaxConsecutiveFailures: 3,
	}
}

// RandomSearch samples the space uniformly at random. It is the cheap
// baseline member of the ensemble and a control for surrogate quality.
type RandomSearch struct {
	cfg       RandomConfig
	evaluator tune.Evaluator
	agg       objective.Aggregator
	logger    *slog.Logger
}

// NewRandomSearch creates a random-search strategy.
func NewRandomSearch(cfg RandomConfig, ev tune.Evaluator, agg objective.Aggregator, logger *slog.Logger) (*RandomSearch, error) {
	if ev == nil {
		return nil, fmt.Errorf("random search needs an evaluator")
	}
	if cfg.Tolerance < 0 {
		cfg.Tolerance = 0
	}
	if cfg.MaxConsecutiveFailures <= 0 {
		cfg.MaxConsecutiveFailures = DefaultRandomConfig().MaxConsecutiveFailures
	}
	if agg == nil {
		agg = objective.NewWeightedDistance(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RandomSearch{
		cfg:       cfg,
		evaluator: ev,
		agg:       agg,
		logger:    logger,
	}, nil
}

// Name returns the strategy name.
func (s *RandomSearch) Name() string {
	return string(TypeRandomSearch)
}

// Optimize evaluates the caller's configuration, then uniform random
// samples until the budget is spent.
func (s *RandomSearch) Optimize(ctx context.Context, req *tune.Request) (*tune.Result, error) {
	r := newRun(req, s.evaluator, s.agg, s.logger, newRNG(s.cfg.Seed))

	if req.Initial != nil {
		cfg, err := req.Space.Canonicalize(req.Initial)
		if err != nil {
			return nil, err
		}
		r.evaluate(ctx, cfg)
		if res, done := r.checkStop(ctx, s.cfg.MaxConsecutiveFailures, s.cfg.Tolerance); done {
			return res, nil
		}
	}

	for r.iterations < req.MaxIterations {
		r.iterations++
		r.evaluate(ctx, r.sampleUnseen())
		if res, done := r.checkStop(ctx, s.cfg.MaxConsecutiveFailures, s.cfg.Tolerance); done {
			return res, nil
		}
	}

	return r.result(tune.ReasonBudgetExhausted), nil
}

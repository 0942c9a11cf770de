package strategy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/striep/edatune/internal/objective"
	"github.com/striep/edatune/internal/tune"
	"github.com/striep/edatune/internal/tune/acquisition"
	"github.com/striep/edatune/internal/tune/surrogate"
)

// BayesianConfig holds Bayesian strategy configuration.
type BayesianConfig struct {
	// InitialSamples randomized configurations complete the initial
	// design next to the caller's configuration.
	InitialSamples int

	// MinFitTrials successful trials are needed before the surrogate is
	// fit; until then the sampling phase is extended.
	MinFitTrials int

	// Tolerance on the objective: at or below means converged.
	Tolerance float64

	// MaxConsecutiveFailures forces the failed terminal state.
	MaxConsecutiveFailures int

	// Seed for the run's random source. Zero means time-seeded.
	Seed int64

	Surrogate   surrogate.Config
	Acquisition acquisition.Config
}

// DefaultBayesianConfig returns default Bayesian strategy configuration.
func DefaultBayesianConfig() BayesianConfig {
	return BayesianConfig{
		InitialSamples:         4,
		MinFitTrials:           2,
		Tolerance:              1e-3,
		MaxConsecutiveFailures: 3,
		Surrogate:              surrogate.DefaultConfig(),
		Acquisition:            acquisition.DefaultConfig(),
	}
}

// Bayesian drives evaluations with a Gaussian-process surrogate and an
// acquisition planner over the normalized space.
type Bayesian struct {
	cfg       BayesianConfig
	evaluator tune.Evaluator
	agg       objective.Aggregator
	logger    *slog.Logger
}

// NewBayesian creates a Bayesian optimization strategy.
func NewBayesian(cfg BayesianConfig, ev tune.Evaluator, agg objective.Aggregator, logger *slog.Logger) (*Bayesian, error) {
	if ev == nil {
		return nil, fmt.Errorf("bayesian strategy needs an evaluator")
	}
	def := DefaultBayesianConfig()
	if cfg.InitialSamples <= 0 {
		cfg.InitialSamples = def.InitialSamples
	}
	if cfg.MinFitTrials < 2 {
		cfg.MinFitTrials = def.MinFitTrials
	}
	if cfg.Tolerance < 0 {
		cfg.Tolerance = 0
	}
	if cfg.MaxConsecutiveFailures <= 0 {
		cfg.MaxConsecutiveFailures = def.MaxConsecutiveFailures
	}
	if agg == nil {
		agg = objective.NewWeightedDistance(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	// Surface kernel and acquisition misconfiguration at construction
	// time instead of on the first request.
	if _, err := surrogate.New(cfg.Surrogate); err != nil {
		return nil, err
	}
	if _, err := acquisition.NewPlanner(cfg.Acquisition, newRNG(1)); err != nil {
		return nil, err
	}
	return &Bayesian{
		cfg:       cfg,
		evaluator: ev,
		agg:       agg,
		logger:    logger,
	}, nil
}

// Name returns the strategy name.
func (s *Bayesian) Name() string {
	return string(TypeBayesian)
}

// Optimize runs the initial design followed by the acquisition loop.
// MaxIterations budgets the acquisition-driven evaluations beyond the
// initial sampling phase.
func (s *Bayesian) Optimize(ctx context.Context, req *tune.Request) (*tune.Result, error) {
	model, err := surrogate.New(s.cfg.Surrogate)
	if err != nil {
		return nil, err
	}
	r := newRun(req, s.evaluator, s.agg, s.logger, newRNG(s.cfg.Seed))
	planner, err := acquisition.NewPlanner(s.cfg.Acquisition, r.rng)
	if err != nil {
		return nil, err
	}

	// Initial design: the caller's configuration when given, then
	// randomized samples.
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
	for i := 0; i < s.cfg.InitialSamples; i++ {
		r.evaluate(ctx, r.sampleUnseen())
		if res, done := r.checkStop(ctx, s.cfg.MaxConsecutiveFailures, s.cfg.Tolerance); done {
			return res, nil
		}
	}

	for r.iterations < req.MaxIterations {
		obs, err := r.fitObservations(s.cfg.MinFitTrials)
		if errors.Is(err, tune.ErrInsufficientData) {
			// Not enough successful trials for a non-degenerate fit:
			// extend the sampling phase instead of failing.
			s.logger.Debug("extending initial sampling", "error", err)
			r.evaluate(ctx, r.sampleUnseen())
			if res, done := r.checkStop(ctx, s.cfg.MaxConsecutiveFailures, s.cfg.Tolerance); done {
				return res, nil
			}
			continue
		}
		if err != nil {
			return nil, err
		}

		if err := model.Fit(obs); err != nil {
			return nil, fmt.Errorf("fitting surrogate: %w", err)
		}
		best := tune.BestTrial(r.trials)
		point, score := planner.Propose(model, req.Space.Dim(), best.Objective)
		cfg, err := req.Space.Denormalize(point)
		if err != nil {
			return nil, err
		}
		if r.hasSeen(cfg) {
			cfg = r.sampleUnseen()
		}
		r.iterations++
		s.logger.Debug("evaluating proposal",
			"iteration", r.iterations,
			"acquisition_score", score,
			"best_objective", best.Objective)
		r.evaluate(ctx, cfg)
		if res, done := r.checkStop(ctx, s.cfg.MaxConsecutiveFailures, s.cfg.Tolerance); done {
			return res, nil
		}
	}

	return r.result(tune.ReasonBudgetExhausted), nil
}

package strategy

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/striep/edatune/internal/objective"
	"github.com/striep/edatune/internal/param"
	"github.com/striep/edatune/internal/tune"
	"github.com/striep/edatune/internal/tune/surrogate"
)

// penaltyObjective stands in for a worst-possible objective on rejected
// trials. Rejected trials are excluded from surrogate fitting and can
// never become the best trial; the value only marks them in histories.
const penaltyObjective = 1e6

// run holds the mutable state of a single optimization pass. Strategies
// are stateless across calls; every Optimize builds its own run, so
// concurrent requests never share surrogate or trial state.
type run struct {
	req    *tune.Request
	ev     tune.Evaluator
	agg    objective.Aggregator
	logger *slog.Logger
	rng    *rand.Rand

	trials     []tune.Trial
	seen       map[string]struct{}
	failures   int // consecutive evaluation failures
	iterations int // acquisition-driven evaluations, the budgeted count
}

func newRun(req *tune.Request, ev tune.Evaluator, agg objective.Aggregator, logger *slog.Logger, rng *rand.Rand) *run {
	return &run{
		req:    req,
		ev:     ev,
		agg:    agg,
		logger: logger,
		rng:    rng,
		seen:   make(map[string]struct{}),
	}
}

// newRNG builds the per-run random source. Zero seed means time-seeded.
func newRNG(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// evaluate runs one configuration and records the trial. Evaluation
// failures become rejected trials; they never abort the run by
// themselves.
func (r *run) evaluate(ctx context.Context, cfg param.Configuration) *tune.Trial {
	trial := tune.Trial{
		ID:     uuid.NewString(),
		Config: cfg,
		At:     time.Now(),
	}

	metrics, err := tune.EvaluateWithTimeout(ctx, r.ev, r.req.EvalTimeout, r.req.Tool, cfg)
	if err != nil {
		trial.Rejected = true
		trial.Error = err.Error()
		trial.Objective = penaltyObjective
		r.failures++
		r.logger.Warn("trial rejected",
			"tool", r.req.Tool,
			"consecutive_failures", r.failures,
			"error", err)
	} else {
		trial.Metrics = metrics
		trial.Objective = r.agg.Score(metrics, r.req.Target)
		r.failures = 0
	}

	r.trials = append(r.trials, trial)
	r.markSeen(cfg)
	return &r.trials[len(r.trials)-1]
}

func (r *run) markSeen(cfg param.Configuration) {
	if key, err := r.req.Space.Key(cfg); err == nil {
		r.seen[key] = struct{}{}
	}
}

// hasSeen reports whether an identical configuration was already
// evaluated in this run.
func (r *run) hasSeen(cfg param.Configuration) bool {
	key, err := r.req.Space.Key(cfg)
	if err != nil {
		return false
	}
	_, ok := r.seen[key]
	return ok
}

// sampleUnseen draws a uniform random configuration, preferring one not
// yet evaluated. A small discrete space can exhaust; after a bounded
// number of draws the duplicate is accepted.
func (r *run) sampleUnseen() param.Configuration {
	for i := 0; i < 32; i++ {
		cfg := r.req.Space.Sample(r.rng)
		if !r.hasSeen(cfg) {
			return cfg
		}
	}
	return r.req.Space.Sample(r.rng)
}

// fitObservations returns the normalized successful trials for
// surrogate fitting, or ErrInsufficientData when fewer than min exist.
func (r *run) fitObservations(min int) ([]surrogate.Observation, error) {
	obs := make([]surrogate.Observation, 0, len(r.trials))
	for i := range r.trials {
		t := &r.trials[i]
		if t.Rejected {
			continue
		}
		x, err := r.req.Space.Normalize(t.Config)
		if err != nil {
			return nil, err
		}
		obs = append(obs, surrogate.Observation{X: x, Y: t.Objective})
	}
	if len(obs) < min {
		return nil, fmt.Errorf("%w: %d of %d successful trials", tune.ErrInsufficientData, len(obs), min)
	}
	return obs, nil
}

// checkStop applies the stop conditions shared by the sequential
// strategies: context cancellation, the consecutive-failure cap and
// convergence. Budget exhaustion is handled by the loop structure.
func (r *run) checkStop(ctx context.Context, maxFailures int, tolerance float64) (*tune.Result, bool) {
	if ctx.Err() != nil {
		return r.result(tune.ReasonFailed, "run canceled before the budget was spent"), true
	}
	if maxFailures > 0 && r.failures >= maxFailures {
		return r.result(tune.ReasonFailed,
			fmt.Sprintf("%d consecutive evaluation failures", r.failures)), true
	}
	if best := tune.BestTrial(r.trials); best != nil && best.Objective <= tolerance {
		return r.result(tune.ReasonConverged), true
	}
	return nil, false
}

// result assembles the terminal result from the run state. The best
// trial and full history are always carried, whatever the reason.
func (r *run) result(reason tune.TerminalReason, notes ...string) *tune.Result {
	res := &tune.Result{
		IterationsUsed: r.iterations,
		TerminalReason: reason,
		Trials:         r.trials,
		Notes:          notes,
	}
	if best := tune.BestTrial(r.trials); best != nil {
		res.BestConfig = best.Config
		res.BestObjective = best.Objective
		res.AchievedMetrics = best.Metrics
	}
	return res
}

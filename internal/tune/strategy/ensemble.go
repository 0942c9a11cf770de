package strategy

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/striep/edatune/internal/learning"
	"github.com/striep/edatune/internal/objective"
	"github.com/striep/edatune/internal/tune"
)

// EnsembleConfig holds ensemble configuration.
type EnsembleConfig struct {
	// Members name the strategies the ensemble combines.
	Members []Type

	// JoinTimeout bounds the wait for members; zero waits for all.
	// On timeout only completed members are combined and the result is
	// annotated as degraded.
	JoinTimeout time.Duration
}

// DefaultEnsembleConfig returns default ensemble configuration.
func DefaultEnsembleConfig() EnsembleConfig {
	return EnsembleConfig{
		Members: []Type{TypeBayesian, TypeTransfer, TypeRandomSearch},
	}
}

// Ensemble fans a request out to member strategies, joins their results
// and merges the winning configurations into one recommendation. Votes
// are weighted by ledger reliability times outcome closeness, and the
// merged configuration is evaluated once so its metrics are real.
type Ensemble struct {
	cfg       EnsembleConfig
	members   []tune.Strategy
	ledger    *learning.Ledger
	evaluator tune.Evaluator
	agg       objective.Aggregator
	logger    *slog.Logger
}

// NewEnsemble creates an ensemble over the given members.
func NewEnsemble(cfg EnsembleConfig, members []tune.Strategy, ledger *learning.Ledger, ev tune.Evaluator, agg objective.Aggregator, logger *slog.Logger) (*Ensemble, error) {
	if len(members) == 0 {
		return nil, fmt.Errorf("ensemble needs at least one member")
	}
	if ledger == nil {
		return nil, fmt.Errorf("ensemble needs a weight ledger")
	}
	if ev == nil {
		return nil, fmt.Errorf("ensemble needs an evaluator")
	}
	if agg == nil {
		agg = objective.NewWeightedDistance(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ensemble{
		cfg:       cfg,
		members:   members,
		ledger:    ledger,
		evaluator: ev,
		agg:       agg,
		logger:    logger,
	}, nil
}

// Name returns the strategy name.
func (s *Ensemble) Name() string {
	return string(TypeEnsemble)
}

type memberOutcome struct {
	name   string
	result *tune.Result
	err    error
}

// Optimize runs every member concurrently and combines what finished in
// time.
func (s *Ensemble) Optimize(ctx context.Context, req *tune.Request) (*tune.Result, error) {
	versionBefore := s.ledger.Version()

	memberCtx, cancelMembers := context.WithCancel(ctx)
	defer cancelMembers()

	outcomes := make(chan memberOutcome, len(s.members))
	var wg sync.WaitGroup
	for _, m := range s.members {
		m := m
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := m.Optimize(memberCtx, req)
			outcomes <- memberOutcome{name: m.Name(), result: res, err: err}
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	var notes []string
	if s.cfg.JoinTimeout > 0 {
		select {
		case <-done:
		case <-time.After(s.cfg.JoinTimeout):
			notes = append(notes, fmt.Sprintf(
				"degraded: join timed out after %s, combining completed members only", s.cfg.JoinTimeout))
			s.logger.Warn("ensemble join timed out",
				"timeout", s.cfg.JoinTimeout, "members", len(s.members))
		}
	} else {
		<-done
	}

	completed := drain(outcomes)
	cancelMembers()

	iterations := 0
	var trials []tune.Trial
	var breakdown []tune.StrategyOutcome
	var votes []weightedConfig
	var reasons []tune.TerminalReason
	var best *tune.StrategyOutcome
	var bestMetrics objective.Metrics

	for _, mo := range completed {
		if mo.err != nil {
			s.logger.Warn("ensemble member failed", "member", mo.name, "error", mo.err)
			notes = append(notes, fmt.Sprintf("member %s failed: %v", mo.name, mo.err))
			continue
		}
		res := mo.result
		iterations += res.IterationsUsed
		trials = append(trials, res.Trials...)
		reasons = append(reasons, res.TerminalReason)
		if res.BestConfig == nil {
			notes = append(notes, fmt.Sprintf("member %s produced no successful trial", mo.name))
			continue
		}

		closeness := objective.Closeness(res.BestObjective)
		weight := s.ledger.Weight(mo.name) * closeness
		s.ledger.Update(mo.name, closeness)

		votes = append(votes, weightedConfig{config: res.BestConfig, weight: weight})
		outcome := tune.StrategyOutcome{
			Strategy:  mo.name,
			Config:    res.BestConfig,
			Objective: res.BestObjective,
			Weight:    weight,
			Note:      res.TerminalReason.String(),
		}
		breakdown = append(breakdown, outcome)
		if best == nil || outcome.Objective < best.Objective {
			o := outcome
			best = &o
			bestMetrics = res.AchievedMetrics
		}
	}

	if len(votes) == 0 {
		return &tune.Result{
			IterationsUsed: iterations,
			TerminalReason: tune.ReasonFailed,
			Trials:         trials,
			Breakdown:      breakdown,
			WeightsVersion: s.ledger.Version(),
			Notes:          append(notes, "no ensemble member produced a usable configuration"),
		}, nil
	}

	// Evaluate the merged configuration once so the reported metrics
	// are measured, not inferred.
	merged := blendConfigs(req.Space, votes, req.Initial)
	r := newRun(req, s.evaluator, s.agg, s.logger, newRNG(0))
	mergedTrial := r.evaluate(ctx, merged)
	iterations++
	trials = append(trials, *mergedTrial)

	mergedOutcome := tune.StrategyOutcome{
		Strategy:  "merged",
		Config:    mergedTrial.Config,
		Objective: mergedTrial.Objective,
		Note:      "combined configuration",
	}
	if mergedTrial.Rejected {
		mergedOutcome.Note = "combined configuration evaluation failed"
		notes = append(notes, fmt.Sprintf("merged configuration rejected: %s", mergedTrial.Error))
	}
	breakdown = append(breakdown, mergedOutcome)

	bestConfig := best.Config
	bestObjective := best.Objective
	if !mergedTrial.Rejected && mergedTrial.Objective <= bestObjective {
		bestConfig = mergedTrial.Config
		bestObjective = mergedTrial.Objective
		bestMetrics = mergedTrial.Metrics
	}

	notes = append(notes, fmt.Sprintf("strategy weights updated from version %d to %d",
		versionBefore, s.ledger.Version()))

	return &tune.Result{
		BestConfig:      bestConfig,
		BestObjective:   bestObjective,
		AchievedMetrics: bestMetrics,
		IterationsUsed:  iterations,
		TerminalReason:  foldReasons(reasons),
		Trials:          trials,
		Breakdown:       breakdown,
		WeightsVersion:  s.ledger.Version(),
		Notes:           notes,
	}, nil
}

// drain collects whatever member outcomes have arrived so far.
func drain(ch chan memberOutcome) []memberOutcome {
	var out []memberOutcome
	for {
		select {
		case mo := <-ch:
			out = append(out, mo)
		default:
			return out
		}
	}
}

// foldReasons folds member reasons into one: any convergence wins, any
// clean finish beats failure.
func foldReasons(reasons []tune.TerminalReason) tune.TerminalReason {
	out := tune.ReasonFailed
	for _, r := range reasons {
		switch r {
		case tune.ReasonConverged:
			return tune.ReasonConverged
		case tune.ReasonBudgetExhausted:
			out = tune.ReasonBudgetExhausted
		}
	}
	return out
}

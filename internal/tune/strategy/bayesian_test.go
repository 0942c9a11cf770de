package strategy

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/striep/edatune/internal/objective"
	"github.com/striep/edatune/internal/param"
	"github.com/striep/edatune/internal/tune"
)

func TestBayesian_SynthesisScenario(t *testing.T) {
	space, err := param.NewSpace([]param.Spec{
		{Name: "optimization_level", Kind: param.KindInteger, Min: 0, Max: 3},
		{Name: "seed", Kind: param.KindInteger, Min: 0, Max: 9999},
	})
	if err != nil {
		t.Fatalf("failed to create space: %v", err)
	}

	// Deterministic stand-in for a synthesis tool: fastest at level 2
	// with a small seed-dependent jitter.
	eval := tune.EvaluatorFunc(func(_ context.Context, _ string, cfg param.Configuration) (objective.Metrics, error) {
		level := float64(cfg["optimization_level"].(int64))
		seed := float64(cfg["seed"].(int64))
		return objective.Metrics{"execution_time": 5.0 + math.Abs(level-2)*2 + seed/10000}, nil
	})

	strat, err := NewBayesian(BayesianConfig{Seed: 7}, eval, nil, testLogger())
	if err != nil {
		t.Fatalf("failed to create strategy: %v", err)
	}

	req := &tune.Request{
		Tool:          "synth",
		ProjectID:     "chip-x",
		Space:         space,
		Initial:       param.Configuration{"optimization_level": 1, "seed": 123},
		Target:        objective.Metrics{"execution_time": 5.0},
		MaxIterations: 10,
	}
	res, err := strat.Optimize(context.Background(), req)
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}

	if res.IterationsUsed > 10 {
		t.Errorf("expected at most 10 iterations, got %d", res.IterationsUsed)
	}
	if !res.TerminalReason.IsValid() {
		t.Errorf("unexpected terminal reason %q", res.TerminalReason)
	}
	if res.BestConfig == nil {
		t.Fatal("expected a best configuration")
	}
	level, ok := res.BestConfig["optimization_level"].(int64)
	if !ok || level < 0 || level > 3 {
		t.Errorf("expected optimization_level in [0,3], got %v", res.BestConfig["optimization_level"])
	}
	best := tune.BestTrial(res.Trials)
	if best == nil || best.Objective != res.BestObjective {
		t.Error("expected the reported best to match the trial history")
	}
}

func TestBayesian_ConvergesOnTarget(t *testing.T) {
	strat, err := NewBayesian(BayesianConfig{Seed: 1}, scoreEval(func(param.Configuration) float64 { return 0 }), nil, testLogger())
	if err != nil {
		t.Fatalf("failed to create strategy: %v", err)
	}
	req := newRequest(t, numSpace(t), 10)
	req.Initial = param.Configuration{"opt_level": 1, "effort": 0.5}

	res, err := strat.Optimize(context.Background(), req)
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}
	if res.TerminalReason != tune.ReasonConverged {
		t.Errorf("expected converged, got %s", res.TerminalReason)
	}
	if res.IterationsUsed != 0 {
		t.Errorf("expected 0 acquisition iterations, got %d", res.IterationsUsed)
	}
	if len(res.Trials) != 1 {
		t.Errorf("expected 1 trial, got %d", len(res.Trials))
	}
	if res.BestObjective != 0 {
		t.Errorf("expected objective 0, got %v", res.BestObjective)
	}
}

func TestBayesian_BudgetExhausted(t *testing.T) {
	// Objective stays far from target; the budget is the only stop.
	eval := scoreEval(func(cfg param.Configuration) float64 {
		return 5 + cfg["effort"].(float64)
	})
	strat, err := NewBayesian(BayesianConfig{InitialSamples: 2, Seed: 3}, eval, nil, testLogger())
	if err != nil {
		t.Fatalf("failed to create strategy: %v", err)
	}
	req := newRequest(t, numSpace(t), 5)
	req.Initial = param.Configuration{"opt_level": 0, "effort": 0.5}

	res, err := strat.Optimize(context.Background(), req)
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}
	if res.TerminalReason != tune.ReasonBudgetExhausted {
		t.Errorf("expected budget_exhausted, got %s", res.TerminalReason)
	}
	if res.IterationsUsed != 5 {
		t.Errorf("expected 5 iterations, got %d", res.IterationsUsed)
	}
	if len(res.Trials) != 8 {
		t.Errorf("expected 8 trials (1 initial + 2 samples + 5 proposals), got %d", len(res.Trials))
	}
}

func TestBayesian_ConsecutiveFailuresForceFailed(t *testing.T) {
	strat, err := NewBayesian(BayesianConfig{Seed: 5}, failingEval(), nil, testLogger())
	if err != nil {
		t.Fatalf("failed to create strategy: %v", err)
	}
	req := newRequest(t, numSpace(t), 10)
	req.Initial = param.Configuration{"opt_level": 1, "effort": 0.5}

	res, err := strat.Optimize(context.Background(), req)
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}
	if res.TerminalReason != tune.ReasonFailed {
		t.Errorf("expected failed, got %s", res.TerminalReason)
	}
	if len(res.Trials) != 3 {
		t.Errorf("expected 3 trials before the failure cap, got %d", len(res.Trials))
	}
	for _, tr := range res.Trials {
		if !tr.Rejected || tr.Error == "" {
			t.Errorf("expected rejected trial with error, got %+v", tr)
		}
	}
	if res.BestConfig != nil {
		t.Error("expected no best configuration when every trial failed")
	}
	if !strings.Contains(strings.Join(res.Notes, " "), "consecutive") {
		t.Errorf("expected a note about consecutive failures, got %v", res.Notes)
	}
}

func TestBayesian_RecoversFromSingleFailure(t *testing.T) {
	calls := 0
	eval := tune.EvaluatorFunc(func(_ context.Context, _ string, cfg param.Configuration) (objective.Metrics, error) {
		calls++
		if calls == 2 {
			return nil, errors.New("transient license failure")
		}
		return objective.Metrics{"score": 4 + cfg["effort"].(float64)}, nil
	})
	strat, err := NewBayesian(BayesianConfig{InitialSamples: 2, Seed: 4}, eval, nil, testLogger())
	if err != nil {
		t.Fatalf("failed to create strategy: %v", err)
	}
	req := newRequest(t, numSpace(t), 3)
	req.Initial = param.Configuration{"opt_level": 1, "effort": 0.5}

	res, err := strat.Optimize(context.Background(), req)
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}
	if res.TerminalReason != tune.ReasonBudgetExhausted {
		t.Errorf("expected budget_exhausted, got %s", res.TerminalReason)
	}
	rejected := 0
	for _, tr := range res.Trials {
		if tr.Rejected {
			rejected++
		}
	}
	if rejected != 1 {
		t.Errorf("expected exactly 1 rejected trial, got %d", rejected)
	}
	if len(res.Trials) != 6 {
		t.Errorf("expected 6 trials, got %d", len(res.Trials))
	}
}

func TestBayesian_InsufficientDataExtendsSampling(t *testing.T) {
	// The second design sample fails, leaving one success; the loop
	// must keep sampling until two successes exist before fitting.
	calls := 0
	eval := tune.EvaluatorFunc(func(_ context.Context, _ string, _ param.Configuration) (objective.Metrics, error) {
		calls++
		if calls == 2 {
			return nil, errors.New("tool crashed")
		}
		return objective.Metrics{"score": 4}, nil
	})
	strat, err := NewBayesian(BayesianConfig{InitialSamples: 2, Seed: 6}, eval, nil, testLogger())
	if err != nil {
		t.Fatalf("failed to create strategy: %v", err)
	}

	res, err := strat.Optimize(context.Background(), newRequest(t, numSpace(t), 2))
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}
	if res.TerminalReason != tune.ReasonBudgetExhausted {
		t.Errorf("expected budget_exhausted, got %s", res.TerminalReason)
	}
	if res.IterationsUsed != 2 {
		t.Errorf("expected 2 budgeted iterations, got %d", res.IterationsUsed)
	}
	// 2 design samples + 1 extension sample + 2 proposals.
	if len(res.Trials) != 5 {
		t.Errorf("expected 5 trials, got %d", len(res.Trials))
	}
}

func TestBayesian_NeverRepeatsConfiguration(t *testing.T) {
	space, err := param.NewSpace([]param.Spec{
		{Name: "opt_level", Kind: param.KindInteger, Min: 0, Max: 7},
		{Name: "retime", Kind: param.KindBoolean},
	})
	if err != nil {
		t.Fatalf("failed to create space: %v", err)
	}
	eval := scoreEval(func(cfg param.Configuration) float64 {
		return 3 + float64(cfg["opt_level"].(int64))
	})
	strat, err := NewBayesian(BayesianConfig{InitialSamples: 2, Seed: 11}, eval, nil, testLogger())
	if err != nil {
		t.Fatalf("failed to create strategy: %v", err)
	}
	req := newRequest(t, space, 4)

	res, err := strat.Optimize(context.Background(), req)
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}
	seen := make(map[string]bool)
	for _, tr := range res.Trials {
		key, err := space.Key(tr.Config)
		if err != nil {
			t.Fatalf("failed to key config: %v", err)
		}
		if seen[key] {
			t.Errorf("configuration evaluated twice: %s", key)
		}
		seen[key] = true
	}
}

func TestBayesian_ImprovesOverPoorStart(t *testing.T) {
	// Bowl-shaped objective with its minimum at effort 0.7.
	eval := scoreEval(func(cfg param.Configuration) float64 {
		e := cfg["effort"].(float64)
		return (e - 0.7) * (e - 0.7)
	})
	strat, err := NewBayesian(BayesianConfig{Seed: 42}, eval, nil, testLogger())
	if err != nil {
		t.Fatalf("failed to create strategy: %v", err)
	}
	req := newRequest(t, numSpace(t), 8)
	req.Initial = param.Configuration{"opt_level": 0, "effort": 0.05}

	res, err := strat.Optimize(context.Background(), req)
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}
	if res.TerminalReason == tune.ReasonFailed {
		t.Fatalf("expected a clean finish, got %s", res.TerminalReason)
	}
	start := (0.05 - 0.7) * (0.05 - 0.7)
	if res.BestObjective >= start {
		t.Errorf("expected improvement over starting objective %v, got %v", start, res.BestObjective)
	}
}

func TestBayesian_InvalidInitialRejected(t *testing.T) {
	strat, err := NewBayesian(BayesianConfig{}, scoreEval(func(param.Configuration) float64 { return 1 }), nil, testLogger())
	if err != nil {
		t.Fatalf("failed to create strategy: %v", err)
	}
	req := newRequest(t, numSpace(t), 5)
	req.Initial = param.Configuration{"opt_level": 99, "effort": 0.5}

	if _, err := strat.Optimize(context.Background(), req); !param.IsInvalidParameter(err) {
		t.Errorf("expected invalid parameter error, got %v", err)
	}
}

func TestBayesian_CanceledRunKeepsHistory(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	eval := scoreEval(func(param.Configuration) float64 { return 5 })
	strat, err := NewBayesian(BayesianConfig{Seed: 2}, eval, nil, testLogger())
	if err != nil {
		t.Fatalf("failed to create strategy: %v", err)
	}
	req := newRequest(t, numSpace(t), 10)
	req.Initial = param.Configuration{"opt_level": 1, "effort": 0.5}

	res, err := strat.Optimize(ctx, req)
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}
	if res.TerminalReason != tune.ReasonFailed {
		t.Errorf("expected failed after cancellation, got %s", res.TerminalReason)
	}
	if len(res.Trials) != 1 {
		t.Errorf("expected the partial history to be kept, got %d trials", len(res.Trials))
	}
	if !strings.Contains(strings.Join(res.Notes, " "), "canceled") {
		t.Errorf("expected a cancellation note, got %v", res.Notes)
	}
}

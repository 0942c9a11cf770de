package strategy

import (
	"context"
	"testing"

	"github.com/striep/edatune/internal/param"
	"github.com/striep/edatune/internal/tune"
)

func TestRandomSearch_BudgetExhausted(t *testing.T) {
	eval := scoreEval(func(cfg param.Configuration) float64 {
		return 5 + cfg["effort"].(float64)
	})
	strat, err := NewRandomSearch(RandomConfig{Seed: 2}, eval, nil, testLogger())
	if err != nil {
		t.Fatalf("failed to create strategy: %v", err)
	}

	res, err := strat.Optimize(context.Background(), newRequest(t, numSpace(t), 6))
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}
	if res.TerminalReason != tune.ReasonBudgetExhausted {
		t.Errorf("expected budget_exhausted, got %s", res.TerminalReason)
	}
	if res.IterationsUsed != 6 {
		t.Errorf("expected 6 iterations, got %d", res.IterationsUsed)
	}
	if len(res.Trials) != 6 {
		t.Errorf("expected 6 trials, got %d", len(res.Trials))
	}
	for _, tr := range res.Trials {
		level, ok := tr.Config["opt_level"].(int64)
		if !ok || level < 0 || level > 3 {
			t.Errorf("expected opt_level in [0,3], got %v", tr.Config["opt_level"])
		}
		effort, ok := tr.Config["effort"].(float64)
		if !ok || effort < 0 || effort > 1 {
			t.Errorf("expected effort in [0,1], got %v", tr.Config["effort"])
		}
	}
}

func TestRandomSearch_ConvergesOnTarget(t *testing.T) {
	strat, err := NewRandomSearch(RandomConfig{Seed: 1}, scoreEval(func(param.Configuration) float64 { return 0 }), nil, testLogger())
	if err != nil {
		t.Fatalf("failed to create strategy: %v", err)
	}
	req := newRequest(t, numSpace(t), 10)
	req.Initial = param.Configuration{"opt_level": 2, "effort": 0.5}

	res, err := strat.Optimize(context.Background(), req)
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}
	if res.TerminalReason != tune.ReasonConverged {
		t.Errorf("expected converged, got %s", res.TerminalReason)
	}
	if res.IterationsUsed != 0 {
		t.Errorf("expected 0 iterations, got %d", res.IterationsUsed)
	}
}

func TestRandomSearch_ConsecutiveFailuresForceFailed(t *testing.T) {
	strat, err := NewRandomSearch(RandomConfig{Seed: 3}, failingEval(), nil, testLogger())
	if err != nil {
		t.Fatalf("failed to create strategy: %v", err)
	}

	res, err := strat.Optimize(context.Background(), newRequest(t, numSpace(t), 10))
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}
	if res.TerminalReason != tune.ReasonFailed {
		t.Errorf("expected failed, got %s", res.TerminalReason)
	}
	if len(res.Trials) != 3 {
		t.Errorf("expected 3 trials before the failure cap, got %d", len(res.Trials))
	}
	if res.BestConfig != nil {
		t.Error("expected no best configuration")
	}
}

package tune

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/striep/edatune/internal/objective"
	"github.com/striep/edatune/internal/param"
	"github.com/striep/edatune/internal/projectdb"
)

func testSpace(t *testing.T) *param.Space {
	t.Helper()
	space, err := param.NewSpace([]param.Spec{
		{Name: "opt_level", Kind: param.KindInteger, Min: 0, Max: 3},
		{Name: "effort", Kind: param.KindContinuous, Min: 0.1, Max: 2.5},
	})
	if err != nil {
		t.Fatalf("failed to create space: %v", err)
	}
	return space
}

func testRequest(t *testing.T) *Request {
	t.Helper()
	return &Request{
		Tool:          "synth",
		ProjectID:     "proj-1",
		Space:         testSpace(t),
		Target:        objective.Metrics{"area_um2": 1200},
		Context:       map[string]any{"chip_type": "asic"},
		MaxIterations: 5,
	}
}

type stubStrategy struct {
	name   string
	result *Result
	err    error
	calls  int
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Optimize(ctx context.Context, req *Request) (*Result, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubResolver struct {
	strategy Strategy
	err      error
	resolved string
}

func (r *stubResolver) Resolve(name string) (Strategy, error) {
	r.resolved = name
	if r.err != nil {
		return nil, r.err
	}
	return r.strategy, nil
}

func TestRequest_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Request)
	}{
		{"no tool", func(r *Request) { r.Tool = "" }},
		{"no space", func(r *Request) { r.Space = nil }},
		{"no target", func(r *Request) { r.Target = nil }},
		{"no budget", func(r *Request) { r.MaxIterations = 0 }},
		{"invalid initial", func(r *Request) {
			r.Initial = param.Configuration{"opt_level": 99, "effort": 1.0}
		}},
		{"unknown initial parameter", func(r *Request) {
			r.Initial = param.Configuration{"opt_level": 2, "effort": 1.0, "bogus": 1}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testRequest(t)
			tt.mutate(req)
			if err := req.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}

	if err := testRequest(t).Validate(); err != nil {
		t.Errorf("expected valid request, got %v", err)
	}
}

func TestTuner_Optimize(t *testing.T) {
	best := param.Configuration{"opt_level": int64(2), "effort": 1.3}
	strat := &stubStrategy{
		name: "bayesian",
		result: &Result{
			BestConfig:     best,
			BestObjective:  0.05,
			IterationsUsed: 5,
			TerminalReason: ReasonBudgetExhausted,
			Trials: []Trial{
				{ID: "t1", Config: best, Objective: 0.05, At: time.Now()},
			},
		},
	}
	store := projectdb.NewMemory()
	tuner, err := NewTuner(&stubResolver{strategy: strat}, store, nil)
	if err != nil {
		t.Fatalf("failed to create tuner: %v", err)
	}

	result, err := tuner.Optimize(context.Background(), testRequest(t))
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}
	if result.Strategy != "bayesian" {
		t.Errorf("expected strategy bayesian, got %s", result.Strategy)
	}
	if strat.calls != 1 {
		t.Errorf("expected 1 strategy call, got %d", strat.calls)
	}

	rec, err := store.Get(context.Background(), "proj-1")
	if err != nil {
		t.Fatalf("expected archived project, got %v", err)
	}
	if rec.Tool != "synth" {
		t.Errorf("expected archived tool synth, got %s", rec.Tool)
	}
	if rec.BestObjective != 0.05 {
		t.Errorf("expected archived objective 0.05, got %v", rec.BestObjective)
	}
	if len(rec.Trials) != 1 {
		t.Errorf("expected 1 archived trial, got %d", len(rec.Trials))
	}
}

func TestTuner_Optimize_NoProjectIDSkipsArchive(t *testing.T) {
	strat := &stubStrategy{
		name: "bayesian",
		result: &Result{
			BestConfig:     param.Configuration{"opt_level": int64(1), "effort": 0.5},
			TerminalReason: ReasonConverged,
		},
	}
	store := projectdb.NewMemory()
	tuner, err := NewTuner(&stubResolver{strategy: strat}, store, nil)
	if err != nil {
		t.Fatalf("failed to create tuner: %v", err)
	}

	req := testRequest(t)
	req.ProjectID = ""
	if _, err := tuner.Optimize(context.Background(), req); err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("expected no archived projects, got %d", store.Len())
	}
}

func TestTuner_Optimize_ResolverError(t *testing.T) {
	resolver := &stubResolver{err: errors.New("unknown strategy")}
	tuner, err := NewTuner(resolver, projectdb.NewMemory(), nil)
	if err != nil {
		t.Fatalf("failed to create tuner: %v", err)
	}

	req := testRequest(t)
	req.Strategy = "quantum"
	if _, err := tuner.Optimize(context.Background(), req); err == nil {
		t.Error("expected resolver error, got nil")
	}
	if resolver.resolved != "quantum" {
		t.Errorf("expected resolver called with quantum, got %s", resolver.resolved)
	}
}

func TestTuner_Optimize_StrategyError(t *testing.T) {
	strat := &stubStrategy{name: "bayesian", err: errors.New("boom")}
	tuner, err := NewTuner(&stubResolver{strategy: strat}, projectdb.NewMemory(), nil)
	if err != nil {
		t.Fatalf("failed to create tuner: %v", err)
	}

	if _, err := tuner.Optimize(context.Background(), testRequest(t)); err == nil {
		t.Error("expected strategy error, got nil")
	}
}

func TestTuner_RegisterProject(t *testing.T) {
	store := projectdb.NewMemory()
	strat := &stubStrategy{name: "bayesian", result: &Result{}}
	tuner, err := NewTuner(&stubResolver{strategy: strat}, store, nil)
	if err != nil {
		t.Fatalf("failed to create tuner: %v", err)
	}

	rec := &projectdb.ProjectRecord{
		ID:   "legacy-1",
		Tool: "synth",
		Best: param.Configuration{"opt_level": int64(3)},
	}
	if err := tuner.RegisterProject(context.Background(), rec); err != nil {
		t.Fatalf("RegisterProject failed: %v", err)
	}
	if _, err := store.Get(context.Background(), "legacy-1"); err != nil {
		t.Errorf("expected registered project, got %v", err)
	}

	if err := tuner.RegisterProject(context.Background(), &projectdb.ProjectRecord{Tool: "synth"}); err == nil {
		t.Error("expected validation error for missing ID, got nil")
	}
}

func TestBestTrial(t *testing.T) {
	trials := []Trial{
		{ID: "a", Objective: 0.8},
		{ID: "b", Objective: 0.2, Rejected: true},
		{ID: "c", Objective: 0.4},
	}
	best := BestTrial(trials)
	if best == nil || best.ID != "c" {
		t.Fatalf("expected best trial c, got %+v", best)
	}

	if BestTrial([]Trial{{ID: "x", Rejected: true, Objective: 1}}) != nil {
		t.Error("expected nil best when all trials rejected")
	}
	if BestTrial(nil) != nil {
		t.Error("expected nil best for empty history")
	}
}

package tune

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/striep/edatune/internal/projectdb"
)

// Strategy runs one optimization request to completion.
// This is duplicated here to avoid import cycles. Implementations live
// in the tune/strategy package.
type Strategy interface {
	Name() string
	Optimize(ctx context.Context, req *Request) (*Result, error)
}

// StrategyResolver maps a requested strategy name to an implementation.
// This is duplicated here to avoid import cycles.
type StrategyResolver interface {
	Resolve(name string) (Strategy, error)
}

// Tuner is the orchestration entry point. It validates requests,
// delegates to the selected strategy and archives the outcome for
// future transfer learning.
type Tuner struct {
	resolver StrategyResolver
	store    projectdb.Store
	logger   *slog.Logger
}

// NewTuner creates a tuner.
func NewTuner(resolver StrategyResolver, store projectdb.Store, logger *slog.Logger) (*Tuner, error) {
	if resolver == nil {
		return nil, fmt.Errorf("tuner needs a strategy resolver")
	}
	if store == nil {
		return nil, fmt.Errorf("tuner needs a project store")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Tuner{
		resolver: resolver,
		store:    store,
		logger:   logger,
	}, nil
}

// Optimize runs one tuning request and returns the result. Runs that
// terminate in a failed state still return a result; an error means the
// request never started.
func (t *Tuner) Optimize(ctx context.Context, req *Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	strat, err := t.resolver.Resolve(req.Strategy)
	if err != nil {
		return nil, err
	}

	t.logger.Info("starting optimization",
		"tool", req.Tool,
		"project", req.ProjectID,
		"strategy", strat.Name(),
		"max_iterations", req.MaxIterations)

	started := time.Now()
	result, err := strat.Optimize(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("strategy %s: %w", strat.Name(), err)
	}
	result.Strategy = strat.Name()

	t.logger.Info("optimization finished",
		"tool", req.Tool,
		"project", req.ProjectID,
		"strategy", strat.Name(),
		"reason", result.TerminalReason.String(),
		"iterations", result.IterationsUsed,
		"best_objective", result.BestObjective,
		"elapsed", time.Since(started))

	t.archive(ctx, req, result)
	return result, nil
}

// archive stores the run outcome so later runs can seed from it.
// Archival failures are logged, never surfaced: the result is already
// in hand.
func (t *Tuner) archive(ctx context.Context, req *Request, result *Result) {
	if req.ProjectID == "" || result.BestConfig == nil {
		return
	}
	rec := &projectdb.ProjectRecord{
		ID:            req.ProjectID,
		Tool:          req.Tool,
		Context:       req.Context,
		Best:          result.BestConfig,
		BestObjective: result.BestObjective,
		Target:        req.Target,
		Trials:        toTrialRecords(result.Trials),
	}
	if err := t.store.Put(ctx, rec); err != nil {
		t.logger.Warn("failed to archive optimization result",
			"project", req.ProjectID, "error", err)
	}
}

// RegisterProject stores a historical project record out-of-band, for
// example results imported from runs tuned by hand.
func (t *Tuner) RegisterProject(ctx context.Context, rec *projectdb.ProjectRecord) error {
	if err := t.store.Put(ctx, rec); err != nil {
		return fmt.Errorf("registering project: %w", err)
	}
	t.logger.Info("registered project", "project", rec.ID, "tool", rec.Tool)
	return nil
}

func toTrialRecords(trials []Trial) []projectdb.TrialRecord {
	if len(trials) == 0 {
		return nil
	}
	out := make([]projectdb.TrialRecord, 0, len(trials))
	for _, tr := range trials {
		out = append(out, projectdb.TrialRecord{
			ID:        tr.ID,
			Config:    tr.Config,
			Metrics:   tr.Metrics,
			Objective: tr.Objective,
			Rejected:  tr.Rejected,
			At:        tr.At,
		})
	}
	return out
}

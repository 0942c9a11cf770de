package tune

import (
	"errors"
	"time"

	"github.com/striep/edatune/internal/objective"
	"github.com/striep/edatune/internal/param"
)

// TerminalReason explains why an optimization run stopped.
type TerminalReason string

const (
	// ReasonConverged - the best objective reached the tolerance.
	ReasonConverged TerminalReason = "converged"
	// ReasonBudgetExhausted - the iteration budget ran out.
	ReasonBudgetExhausted TerminalReason = "budget_exhausted"
	// ReasonFailed - too many consecutive evaluation failures.
	ReasonFailed TerminalReason = "failed"
)

// IsValid checks if the terminal reason is valid.
func (r TerminalReason) IsValid() bool {
	switch r {
	case ReasonConverged, ReasonBudgetExhausted, ReasonFailed:
		return true
	}
	return false
}

// String returns string representation.
func (r TerminalReason) String() string {
	return string(r)
}

// Trial is one evaluated configuration. Trials are append-only within a
// run and never mutated once recorded.
type Trial struct {
	ID        string              `json:"id"`
	Config    param.Configuration `json:"config"`
	Metrics   objective.Metrics   `json:"metrics,omitempty"`
	Objective float64             `json:"objective"`
	Rejected  bool                `json:"rejected,omitempty"`
	Error     string              `json:"error,omitempty"`
	At        time.Time           `json:"at"`
}

// Request describes one optimization run.
type Request struct {
	Tool      string
	ProjectID string
	Space     *param.Space

	// Initial is the caller's starting configuration. Optional.
	Initial param.Configuration

	// Target are the metric values the run drives toward.
	Target objective.Metrics

	// Context carries project attributes (chip type, process node, size
	// class) used for similarity search.
	Context map[string]any

	// Strategy selects the optimization strategy; empty means the
	// configured default.
	Strategy string

	MaxIterations int
	EvalTimeout   time.Duration
}

// Validate checks the request before any evaluation happens.
func (r *Request) Validate() error {
	if r == nil {
		return errors.New("request is nil")
	}
	if r.Tool == "" {
		return errors.New("request has no tool")
	}
	if r.Space == nil {
		return errors.New("request has no parameter space")
	}
	if len(r.Target) == 0 {
		return errors.New("request has no target metrics")
	}
	if r.MaxIterations <= 0 {
		return errors.New("request has no iteration budget")
	}
	if r.Initial != nil {
		if _, err := r.Space.Canonicalize(r.Initial); err != nil {
			return err
		}
	}
	return nil
}

// SeedSource records a past project that seeded a transfer run.
type SeedSource struct {
	ProjectID  string  `json:"project_id"`
	Similarity float64 `json:"similarity"`
	Weight     float64 `json:"weight"`
}

// StrategyOutcome is one strategy's contribution to an ensemble run.
type StrategyOutcome struct {
	Strategy  string              `json:"strategy"`
	Config    param.Configuration `json:"config,omitempty"`
	Objective float64             `json:"objective"`
	Weight    float64             `json:"weight"`
	Note      string              `json:"note,omitempty"`
}

// Result is the outcome of an optimization run. A run that ends in
// failure still carries its best trial and history.
type Result struct {
	Strategy        string              `json:"strategy"`
	BestConfig      param.Configuration `json:"best_config,omitempty"`
	BestObjective   float64             `json:"best_objective"`
	AchievedMetrics objective.Metrics   `json:"achieved_metrics,omitempty"`
	IterationsUsed  int                 `json:"iterations_used"`
	TerminalReason  TerminalReason      `json:"terminal_reason"`
	Trials          []Trial             `json:"trials,omitempty"`
	Breakdown       []StrategyOutcome   `json:"breakdown,omitempty"`
	SeedSources     []SeedSource        `json:"seed_sources,omitempty"`
	WeightsVersion  int64               `json:"weights_version,omitempty"`
	Notes           []string            `json:"notes,omitempty"`
}

// BestTrial returns the non-rejected trial with the lowest objective,
// or nil if every trial was rejected.
func BestTrial(trials []Trial) *Trial {
	var best *Trial
	for i := range trials {
		t := &trials[i]
		if t.Rejected {
			continue
		}
		if best == nil || t.Objective < best.Objective {
			best = t
		}
	}
	return best
}

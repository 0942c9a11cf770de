package tune

import (
	"context"
	"errors"
	"time"

	"github.com/striep/edatune/internal/objective"
	"github.com/striep/edatune/internal/param"
)

// Evaluator runs one configuration through the external tool flow and
// returns the measured metrics.
type Evaluator interface {
	Evaluate(ctx context.Context, tool string, cfg param.Configuration) (objective.Metrics, error)
}

// EvaluatorFunc adapts a plain function to the Evaluator interface.
type EvaluatorFunc func(ctx context.Context, tool string, cfg param.Configuration) (objective.Metrics, error)

// Evaluate calls f.
func (f EvaluatorFunc) Evaluate(ctx context.Context, tool string, cfg param.Configuration) (objective.Metrics, error) {
	return f(ctx, tool, cfg)
}

// EvaluateWithTimeout runs one evaluation under a per-trial deadline.
// Deadline overruns come back as *EvaluationTimeoutError; any other
// failure is wrapped in *EvaluationError.
func EvaluateWithTimeout(ctx context.Context, ev Evaluator, timeout time.Duration, tool string, cfg param.Configuration) (objective.Metrics, error) {
	evalCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		evalCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	metrics, err := ev.Evaluate(evalCtx, tool, cfg)
	if err == nil {
		return metrics, nil
	}
	if IsEvaluationTimeout(err) {
		return nil, err
	}
	// Only treat the deadline as a timeout when the parent context is
	// still live, otherwise the run itself was canceled.
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return nil, &EvaluationTimeoutError{Tool: tool, Timeout: timeout}
	}
	var ee *EvaluationError
	if errors.As(err, &ee) {
		return nil, err
	}
	return nil, &EvaluationError{Tool: tool, Err: err}
}

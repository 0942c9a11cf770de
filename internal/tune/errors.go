package tune

import (
	"errors"
	"fmt"
	"time"
)

// ErrInsufficientData signals that a surrogate cannot be fit yet
// because too few trials have succeeded.
var ErrInsufficientData = errors.New("insufficient data to fit surrogate")

// EvaluationError reports that evaluating one configuration failed.
// The failure is local to the trial, not to the run.
type EvaluationError struct {
	Tool string
	Err  error
}

// Error implements the error interface.
func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluation with %s failed: %v", e.Tool, e.Err)
}

// Unwrap returns the underlying error.
func (e *EvaluationError) Unwrap() error {
	return e.Err
}

// EvaluationTimeoutError reports that an evaluation exceeded its
// deadline.
type EvaluationTimeoutError struct {
	Tool    string
	Timeout time.Duration
}

// Error implements the error interface.
func (e *EvaluationTimeoutError) Error() string {
	return fmt.Sprintf("evaluation with %s timed out after %s", e.Tool, e.Timeout)
}

// IsEvaluationTimeout checks if the error is an evaluation timeout.
func IsEvaluationTimeout(err error) bool {
	var te *EvaluationTimeoutError
	return errors.As(err, &te)
}

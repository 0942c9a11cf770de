package param

import (
	"errors"
	"fmt"
)

// InvalidParameterError reports a configuration value or spec that violates
// the parameter space. It is returned before any evaluation is attempted.
type InvalidParameterError struct {
	Name   string
	Reason string
}

// Error returns the error message.
func (e *InvalidParameterError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("invalid parameter space: %s", e.Reason)
	}
	return fmt.Sprintf("invalid parameter %q: %s", e.Name, e.Reason)
}

// IsInvalidParameter checks if err is an InvalidParameterError.
func IsInvalidParameter(err error) bool {
	var target *InvalidParameterError
	return errors.As(err, &target)
}

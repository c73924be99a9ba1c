package dynamo

import (
	"errors"
	"fmt"
)

var (
	// ErrNonFinite indicates a state with a NaN or Inf coordinate.
	ErrNonFinite = errors.New("dynamo: non-finite state (NaN or Inf detected)")

	// ErrStepUnderflow indicates the error tolerance could not be met at the minimum step.
	ErrStepUnderflow = errors.New("dynamo: tolerance not met at minimum step size")

	// ErrAttemptLimit indicates an adaptive run exhausted its trial step budget.
	ErrAttemptLimit = errors.New("dynamo: adaptive attempt limit reached")

	// ErrCanceled indicates the run was interrupted between steps.
	ErrCanceled = errors.New("dynamo: run canceled")

	ErrInvalidConfig = errors.New("dynamo: invalid configuration")

	ErrNotFound = errors.New("dynamo: system not found")

	// ErrReadOnly indicates a mutation attempt on a built-in system.
	ErrReadOnly = errors.New("dynamo: built-in systems are read-only")

	// ErrExists indicates a custom system with the same name already exists.
	ErrExists = errors.New("dynamo: system already exists")
)

// ConfigError reports an out-of-range setting, rejected before a run starts.
type ConfigError struct {
	Field  string
	Value  string
	Reason string
}

func configErr(field string, value any, reason string) *ConfigError {
	return &ConfigError{Field: field, Value: fmt.Sprint(value), Reason: reason}
}

// NewConfigError builds a ConfigError for a setting outside this package.
func NewConfigError(field string, value any, reason string) *ConfigError {
	return configErr(field, value, reason)
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s=%s: %s", e.Field, e.Value, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// NumericalFailure stops a run. The partial trajectory is still returned.
type NumericalFailure struct {
	Step    int
	Attempt int
	Dt      float64
	State   State
	Err     error
}

func (e *NumericalFailure) Error() string {
	return fmt.Sprintf("step %d (dt=%.4g): %v", e.Step, e.Dt, e.Err)
}

func (e *NumericalFailure) Unwrap() error {
	return e.Err
}

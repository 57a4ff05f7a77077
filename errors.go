package diffcov

import "fmt"

// DiffExecutionError is returned when the diff process could not run, or ran
// and reported a failure on stderr with no usable output.
type DiffExecutionError struct {
	Stderr string // Captured diagnostic text, empty when the process never started
	Err    error  // Underlying cause, nil when the failure came from stderr
}

// Error implements the error interface.
func (e *DiffExecutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("could not load changed files: %v", e.Err)
	}
	return fmt.Sprintf("calling diff failed:\n%s", e.Stderr)
}

func (e *DiffExecutionError) Unwrap() error {
	return e.Err
}

// ScopeComputationError wraps a change detection failure with the baseline
// the scope was computed against.
type ScopeComputationError struct {
	Baseline string
	Err      error
}

// Error implements the error interface.
func (e *ScopeComputationError) Error() string {
	return fmt.Sprintf("computing report scope against %q: %v", e.Baseline, e.Err)
}

func (e *ScopeComputationError) Unwrap() error {
	return e.Err
}

// ConfigurationInjectionError is returned when a named field could not be
// located or assigned on the report generator.
type ConfigurationInjectionError struct {
	Field string
	Err   error
}

// Error implements the error interface.
func (e *ConfigurationInjectionError) Error() string {
	return fmt.Sprintf("could not inject field %q: %v", e.Field, e.Err)
}

func (e *ConfigurationInjectionError) Unwrap() error {
	return e.Err
}

package orchestration

import "fmt"

// ValidationError rejects an operation locally, before any network call is
// made. Session state is unchanged when one is returned.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func newValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// TransportError wraps a failed network operation. The orchestrator has
// already rolled back any optimistic state and returned to the prior
// interactive state by the time one is surfaced.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("%s failed: %v", e.Op, e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// FinalizationError wraps a failed evaluation call. The session still
// reaches the finished phase; evaluation can be retried manually.
type FinalizationError struct {
	Err error
}

func (e *FinalizationError) Error() string { return fmt.Sprintf("evaluation failed: %v", e.Err) }
func (e *FinalizationError) Unwrap() error { return e.Err }

package cli

import (
	"github.com/cockroachdb/errors"
	"github.com/specialistvlad/workgrid/internal/depgraph"
)

const (
	// ExitFailure is returned for any failed run.
	ExitFailure = 1
	// ExitUsage is returned for invalid flags, arguments or configuration.
	ExitUsage = 2
	// ExitCycle is returned when the workspace has a dependency cycle.
	ExitCycle = 3
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(err error) error {
	return &ExitError{Code: ExitUsage, Message: err.Error()}
}

// runError maps a failed run to its exit code.
func runError(err error) error {
	if err == nil {
		return nil
	}
	code := ExitFailure
	if errors.Is(err, depgraph.ErrCycleDetected) {
		code = ExitCycle
	}
	return &ExitError{Code: code, Message: err.Error()}
}

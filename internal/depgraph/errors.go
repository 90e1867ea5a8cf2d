package depgraph

import (
	"strings"

	"github.com/cockroachdb/errors"
)

var (
	// ErrCycleDetected is matched by every *CycleError.
	ErrCycleDetected = errors.New("cycle detected")
	// ErrNodeNotFound is returned when a query names a package the graph
	// has never seen.
	ErrNodeNotFound = errors.New("node not found")
)

// CycleError reports a dependency cycle found while computing an order.
// Path starts and ends with the same name, e.g. [a b c a].
type CycleError struct {
	Path []string
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	return "cycle detected: " + strings.Join(e.Path, " -> ")
}

// Is makes errors.Is(err, ErrCycleDetected) hold for any CycleError.
func (e *CycleError) Is(target error) bool {
	return target == ErrCycleDetected
}

// AsCycle extracts the cycle path from err, if err carries one.
func AsCycle(err error) ([]string, bool) {
	var cycleErr *CycleError
	if errors.As(err, &cycleErr) {
		return cycleErr.Path, true
	}
	return nil, false
}

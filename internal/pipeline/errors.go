package pipeline

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/specialistvlad/workgrid/internal/shellexec"
)

var (
	// ErrStreamsUnsupported rejects items whose content is not buffered.
	ErrStreamsUnsupported = errors.New("streams not supported")
	// ErrUnexpectedInput rejects items that are not a readable package.json.
	ErrUnexpectedInput = errors.New("expected a 'package.json' file")
)

// PluginError is a per-package failure. Continue decides whether the run
// moves on to the next package or halts.
type PluginError struct {
	Stage    string
	Package  string
	Continue bool
	Err      error
}

// Error implements the error interface.
func (e *PluginError) Error() string {
	return fmt.Sprintf("%s failed for workspace package %q: %v", e.Stage, e.Package, e.Err)
}

// Unwrap returns the underlying failure.
func (e *PluginError) Unwrap() error {
	return e.Err
}

// Recoverable wraps err as a *PluginError. When err comes from a spawned
// process, the captured output is attached as a detail.
func Recoverable(err error, continueOnError bool) error {
	if err == nil {
		return nil
	}
	var procErr *shellexec.ProcessError
	if errors.As(err, &procErr) && procErr.Output != "" {
		err = errors.WithDetail(err, procErr.Output)
	}
	return &PluginError{Continue: continueOnError, Err: err}
}

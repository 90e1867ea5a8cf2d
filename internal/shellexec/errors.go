package shellexec

import (
	"fmt"
	"strings"
)

// ProcessError reports a spawned process or script that exited non-zero.
type ProcessError struct {
	Command  string
	Dir      string
	ExitCode int
	Output   string
	Err      error
}

// Error implements the error interface.
func (e *ProcessError) Error() string {
	msg := fmt.Sprintf("%q exited with code %d", e.Command, e.ExitCode)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ": " + lastLines(out, 20)
	}
	return msg
}

// Unwrap returns the underlying exec or interpreter error.
func (e *ProcessError) Unwrap() error {
	return e.Err
}

func lastLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

package testutil

import (
	"context"
	"path/filepath"
	"strings"
	"sync"

	"github.com/specialistvlad/workgrid/internal/shellexec"
)

// Call is one recorded command or script.
type Call struct {
	// Dir is the directory the call ran in, relative to FakeExec.Root, or
	// its base name when Root is empty.
	Dir     string
	Command string
}

// FakeExec records commands instead of running them. Fail decides the
// outcome of each call; a nil Fail lets everything succeed.
type FakeExec struct {
	Root string
	Fail func(dir, command string) error

	mu    sync.Mutex
	calls []Call
}

var _ shellexec.Executor = (*FakeExec)(nil)

// Run implements shellexec.Executor.
func (f *FakeExec) Run(_ context.Context, dir, name string, args ...string) (string, error) {
	command := strings.Join(append([]string{name}, args...), " ")
	return "", f.record(dir, command)
}

// RunScript implements shellexec.Executor.
func (f *FakeExec) RunScript(_ context.Context, dir, script string) error {
	return f.record(dir, script)
}

func (f *FakeExec) record(dir, command string) error {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Dir: f.relative(dir), Command: command})
	fail := f.Fail
	f.mu.Unlock()

	if fail != nil {
		return fail(dir, command)
	}
	return nil
}

func (f *FakeExec) relative(dir string) string {
	if f.Root == "" {
		return filepath.Base(dir)
	}
	rel, err := filepath.Rel(f.Root, dir)
	if err != nil {
		return dir
	}
	return filepath.ToSlash(rel)
}

// Calls returns the recorded calls in order.
func (f *FakeExec) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Commands returns the recorded commands prefixed with their directory,
// like "app: npm install".
func (f *FakeExec) Commands() []string {
	calls := f.Calls()
	out := make([]string, 0, len(calls))
	for _, c := range calls {
		out = append(out, c.Dir+": "+c.Command)
	}
	return out
}

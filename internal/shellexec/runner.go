package shellexec

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/specialistvlad/workgrid/internal/ctxlog"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// Executor is what stages need from the outside world. Runner is the real
// implementation; tests substitute fakes.
type Executor interface {
	// Run spawns name with args in dir and returns its combined output.
	Run(ctx context.Context, dir, name string, args ...string) (string, error)
	// RunScript interprets a shell script in dir.
	RunScript(ctx context.Context, dir, script string) error
}

// Runner executes commands on the local machine.
type Runner struct {
	// Env is appended to the process environment.
	Env []string
	// Stdout receives a copy of script output when set.
	Stdout io.Writer
	// DryRun logs commands instead of running them.
	DryRun bool
}

var _ Executor = (*Runner)(nil)

// Run spawns an executable. The command inherits the environment with
// dir/node_modules/.bin prepended to PATH.
func (r *Runner) Run(ctx context.Context, dir, name string, args ...string) (string, error) {
	logger := ctxlog.FromContext(ctx)
	cmdline := strings.Join(append([]string{name}, args...), " ")

	if r.DryRun {
		logger.Info("Dry run, not executing command.", "command", cmdline, "dir", dir)
		return "", nil
	}
	logger.Debug("Executing command.", "command", cmdline, "dir", dir)

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = r.environ(dir)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		return out.String(), &ProcessError{Command: cmdline, Dir: dir, ExitCode: code, Output: out.String(), Err: err}
	}
	return out.String(), nil
}

// RunScript parses script as POSIX shell and runs it with the built-in
// interpreter, so hooks behave the same on every platform.
func (r *Runner) RunScript(ctx context.Context, dir, script string) error {
	logger := ctxlog.FromContext(ctx)

	if r.DryRun {
		logger.Info("Dry run, not executing script.", "script", script, "dir", dir)
		return nil
	}
	logger.Debug("Executing script.", "script", script, "dir", dir)

	file, err := syntax.NewParser().Parse(strings.NewReader(script), "")
	if err != nil {
		return errors.Wrapf(err, "parsing script %q", script)
	}

	var out bytes.Buffer
	var stdout io.Writer = &out
	if r.Stdout != nil {
		stdout = io.MultiWriter(&out, r.Stdout)
	}

	runner, err := interp.New(
		interp.Dir(dir),
		interp.Env(expand.ListEnviron(r.environ(dir)...)),
		interp.StdIO(nil, stdout, &out),
	)
	if err != nil {
		return errors.Wrap(err, "creating shell interpreter")
	}

	if err := runner.Run(ctx, file); err != nil {
		code := -1
		var status interp.ExitStatus
		if errors.As(err, &status) {
			code = int(status)
		}
		return &ProcessError{Command: script, Dir: dir, ExitCode: code, Output: out.String(), Err: err}
	}
	return nil
}

func (r *Runner) environ(dir string) []string {
	env := append(os.Environ(), r.Env...)
	bin := filepath.Join(dir, "node_modules", ".bin")
	for i, kv := range env {
		if strings.HasPrefix(kv, "PATH=") {
			env[i] = "PATH=" + bin + string(os.PathListSeparator) + strings.TrimPrefix(kv, "PATH=")
			return env
		}
	}
	return append(env, "PATH="+bin)
}

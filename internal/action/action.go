// Package action runs ordered lists of conditional per-package actions.
// Every stage that has hooks (post-install, pre-publish, post-uninstall,
// post-compile) goes through Execute, and every hook list is assembled
// with Merge.
package action

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/specialistvlad/workgrid/internal/ctxlog"
	"github.com/specialistvlad/workgrid/internal/manifest"
)

// Condition decides whether an action applies to a package. A nil
// Condition always applies.
type Condition func(ctx context.Context, desc *manifest.Descriptor, dir string) (bool, error)

// Func performs an action against a package located in dir. It blocks
// until the action has completed.
type Func func(ctx context.Context, desc *manifest.Descriptor, dir string) error

// Action pairs an optional condition with the work to perform.
type Action struct {
	Name      string
	Condition Condition
	Run       Func
}

// ScriptRunner runs a shell script in a directory.
type ScriptRunner interface {
	RunScript(ctx context.Context, dir, script string) error
}

// Execute runs actions strictly in order against one package. An action
// whose condition is false is skipped. The first failure stops the list and
// is returned; deciding whether that failure ends the whole run is left to
// the caller.
func Execute(ctx context.Context, actions []Action, desc *manifest.Descriptor, dir string) error {
	logger := ctxlog.FromContext(ctx).With("package", desc.Name)

	for i, a := range actions {
		if err := ctx.Err(); err != nil {
			return errors.Wrapf(err, "action %d (%s) not started", i, a.Name)
		}

		if a.Condition != nil {
			apply, err := a.Condition(ctx, desc, dir)
			if err != nil {
				return errors.Wrapf(err, "evaluating condition of action %d (%s)", i, a.Name)
			}
			if !apply {
				logger.Debug("Condition not met, skipping action.", "action", a.Name, "index", i)
				continue
			}
		}

		logger.Debug("Running action.", "action", a.Name, "index", i)
		if err := a.Run(ctx, desc, dir); err != nil {
			return errors.Wrapf(err, "action %d (%s) failed", i, a.Name)
		}
	}

	return nil
}

// Merge builds the hook list for one package: caller-supplied actions run
// first, actions discovered in the package's extension file after them.
// Entries without a Run function are dropped.
func Merge(caller, discovered []Action) []Action {
	merged := make([]Action, 0, len(caller)+len(discovered))
	for _, list := range [][]Action{caller, discovered} {
		for _, a := range list {
			if a.Run == nil {
				continue
			}
			merged = append(merged, a)
		}
	}
	return merged
}

// Shell returns an action that runs command through runner in the package
// directory.
func Shell(name, command string, runner ScriptRunner) Action {
	return Action{
		Name: name,
		Run: func(ctx context.Context, _ *manifest.Descriptor, dir string) error {
			return runner.RunScript(ctx, dir, command)
		},
	}
}

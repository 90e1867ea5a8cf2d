package registry

import (
	"io"

	"github.com/cockroachdb/errors"
	"github.com/go-viper/mapstructure/v2"
	"github.com/specialistvlad/workgrid/internal/action"
	"github.com/specialistvlad/workgrid/internal/pipeline"
	"github.com/specialistvlad/workgrid/internal/shellexec"
	"github.com/specialistvlad/workgrid/internal/workspace"
)

// Env is what a stage factory is built from.
type Env struct {
	// Options are the merged workspace-wide options.
	Options pipeline.Options
	// Settings is the stage's own section of the config file.
	Settings map[string]any
	// Exec spawns tools and interprets scripts.
	Exec shellexec.Executor
	// Out receives user-facing output such as listings.
	Out io.Writer
	// Args are positional arguments, like the script name for "script".
	Args []string
	// Actions are caller-supplied hooks. They run before the hooks a
	// package declares in its own hook file.
	Actions []action.Action
	// Workspace is the loaded workspace, for stages that look past the
	// packages in the stream.
	Workspace *workspace.Registry
}

// Factory builds a stage from its environment.
type Factory func(env Env) (pipeline.Stage, error)

// DecodeSettings decodes a stage section onto target. Fields missing from
// settings keep the values target already holds, so callers pre-fill
// defaults.
func DecodeSettings(settings map[string]any, target any) error {
	if len(settings) == 0 {
		return nil
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return errors.Wrap(err, "creating settings decoder")
	}
	if err := decoder.Decode(settings); err != nil {
		return errors.Wrap(err, "decoding stage settings")
	}
	return nil
}

// HookSpec is a shell hook declared in a stage's config section.
type HookSpec struct {
	Name string `mapstructure:"name"`
	Run  string `mapstructure:"run"`
}

// CallerActions turns configured hook specs into actions run by exec and
// appends them after env.Actions.
func CallerActions(env Env, specs []HookSpec) []action.Action {
	actions := append([]action.Action(nil), env.Actions...)
	for _, spec := range specs {
		name := spec.Name
		if name == "" {
			name = "config"
		}
		actions = append(actions, action.Shell(name, spec.Run, env.Exec))
	}
	return actions
}

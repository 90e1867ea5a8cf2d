// Package script runs a named package.json script in every package.
package script

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/specialistvlad/workgrid/internal/ctxlog"
	"github.com/specialistvlad/workgrid/internal/pipeline"
	"github.com/specialistvlad/workgrid/internal/registry"
	"github.com/specialistvlad/workgrid/internal/shellexec"
)

// Name is the stage name.
const Name = "script"

var (
	// ErrNoScriptName is returned when the stage is built without a script name.
	ErrNoScriptName = errors.New("script name is required")
	// ErrMissingScript marks a package that does not declare the script.
	ErrMissingScript = errors.New("script not found")
)

// Config holds the script stage settings.
type Config struct {
	ContinueOnError     bool `mapstructure:"continue_on_error"`
	IgnoreMissingScript bool `mapstructure:"ignore_missing_script"`
}

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the stage with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterStage(Name, New)
}

type binding struct {
	cfg    Config
	script string
	exec   shellexec.Executor
}

// New builds a script stage. The script name is the first positional
// argument.
func New(env registry.Env) (pipeline.Stage, error) {
	if len(env.Args) == 0 || env.Args[0] == "" {
		return nil, ErrNoScriptName
	}
	cfg := Config{ContinueOnError: true, IgnoreMissingScript: true}
	if err := registry.DecodeSettings(env.Settings, &cfg); err != nil {
		return nil, err
	}
	return pipeline.NewStage(Name, env.Options, &binding{cfg: cfg, script: env.Args[0], exec: env.Exec}, runScript), nil
}

func runScript(ctx context.Context, b *binding, pkg *pipeline.Package) (bool, error) {
	ctx = ctxlog.With(ctx, "package", pkg.Name(), "script", b.script)
	logger := ctxlog.FromContext(ctx)

	script, ok := pkg.Descriptor.Scripts[b.script]
	if !ok {
		if b.cfg.IgnoreMissingScript {
			logger.Debug("Script not declared, skipping.")
			return true, nil
		}
		return false, pipeline.Recoverable(errors.Wrapf(ErrMissingScript, "%q in %q", b.script, pkg.Name()), b.cfg.ContinueOnError)
	}

	logger.Info("▶️ Running script.")
	if err := b.exec.RunScript(ctx, pkg.Dir, script); err != nil {
		return false, pipeline.Recoverable(err, b.cfg.ContinueOnError)
	}
	logger.Info("✅ Script finished.")
	return true, nil
}

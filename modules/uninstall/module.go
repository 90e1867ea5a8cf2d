// Package uninstall removes what install put into each package.
package uninstall

import (
	"context"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/specialistvlad/workgrid/internal/action"
	"github.com/specialistvlad/workgrid/internal/ctxlog"
	"github.com/specialistvlad/workgrid/internal/extension"
	"github.com/specialistvlad/workgrid/internal/fsutil"
	"github.com/specialistvlad/workgrid/internal/pipeline"
	"github.com/specialistvlad/workgrid/internal/registry"
	"github.com/specialistvlad/workgrid/internal/shellexec"
)

// Name is the stage name.
const Name = "uninstall"

// TypingsDir holds linked type declarations.
const TypingsDir = ".typings"

// Config holds the uninstall stage settings.
type Config struct {
	ContinueOnError bool                `mapstructure:"continue_on_error"`
	Hooks           []registry.HookSpec `mapstructure:"hooks"`
}

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the stage with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterStage(Name, New)
}

type binding struct {
	cfg     Config
	exec    shellexec.Executor
	actions []action.Action
}

// New builds an uninstall stage.
func New(env registry.Env) (pipeline.Stage, error) {
	cfg := Config{ContinueOnError: true}
	if err := registry.DecodeSettings(env.Settings, &cfg); err != nil {
		return nil, err
	}
	b := &binding{cfg: cfg, exec: env.Exec, actions: registry.CallerActions(env, cfg.Hooks)}
	return pipeline.NewStage(Name, env.Options, b, uninstallPackage), nil
}

func uninstallPackage(ctx context.Context, b *binding, pkg *pipeline.Package) (bool, error) {
	ctx = ctxlog.With(ctx, "package", pkg.Name())
	logger := ctxlog.FromContext(ctx)
	logger.Info("▶️ Uninstalling workspace package.")

	for _, dir := range []string{fsutil.ModulesDir, TypingsDir} {
		path := filepath.Join(pkg.Dir, dir)
		if err := os.RemoveAll(path); err != nil {
			return false, pipeline.Recoverable(errors.Wrapf(err, "removing %s", path), b.cfg.ContinueOnError)
		}
		logger.Debug("Removed directory.", "path", path)
	}

	if err := pkg.RunHooks(ctx, extension.PostUninstall, b.actions, b.exec); err != nil {
		return false, pipeline.Recoverable(err, b.cfg.ContinueOnError)
	}

	logger.Info("✅ Uninstalled workspace package.")
	return true, nil
}

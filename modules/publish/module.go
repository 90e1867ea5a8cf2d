// Package publish bumps, shrinkwraps and publishes each package.
package publish

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/specialistvlad/workgrid/internal/action"
	"github.com/specialistvlad/workgrid/internal/ctxlog"
	"github.com/specialistvlad/workgrid/internal/extension"
	"github.com/specialistvlad/workgrid/internal/fsutil"
	"github.com/specialistvlad/workgrid/internal/manifest"
	"github.com/specialistvlad/workgrid/internal/pipeline"
	"github.com/specialistvlad/workgrid/internal/registry"
	"github.com/specialistvlad/workgrid/internal/shellexec"
)

// Name is the stage name.
const Name = "publish"

// Config holds the publish stage settings.
type Config struct {
	ContinueOnError bool `mapstructure:"continue_on_error"`
	ShrinkWrap      bool `mapstructure:"shrink_wrap"`
	// DryRun computes the bump and runs the hooks but neither rewrites
	// package.json nor calls npm.
	DryRun bool                `mapstructure:"dry_run"`
	Hooks  []registry.HookSpec `mapstructure:"hooks"`
}

// DefaultConfig returns the publish defaults.
func DefaultConfig() Config {
	return Config{ContinueOnError: true, ShrinkWrap: true}
}

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the stage with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterStage(Name, New)
}

type binding struct {
	cfg     Config
	bump    string
	exec    shellexec.Executor
	actions []action.Action
}

// New builds a publish stage.
func New(env registry.Env) (pipeline.Stage, error) {
	cfg := DefaultConfig()
	if err := registry.DecodeSettings(env.Settings, &cfg); err != nil {
		return nil, err
	}
	b := &binding{
		cfg:     cfg,
		bump:    env.Options.VersionBump,
		exec:    env.Exec,
		actions: registry.CallerActions(env, cfg.Hooks),
	}
	return pipeline.NewStage(Name, env.Options, b, publishPackage), nil
}

func publishPackage(ctx context.Context, b *binding, pkg *pipeline.Package) (bool, error) {
	ctx = ctxlog.With(ctx, "package", pkg.Name())
	logger := ctxlog.FromContext(ctx)
	logger.Info("▶️ Publishing workspace package.")

	if err := pkg.RunHooks(ctx, extension.PrePublish, b.actions, b.exec); err != nil {
		return false, pipeline.Recoverable(err, b.cfg.ContinueOnError)
	}

	if b.bump != "" {
		if err := b.applyVersionBump(ctx, pkg); err != nil {
			return false, pipeline.Recoverable(err, b.cfg.ContinueOnError)
		}
	}

	if b.cfg.DryRun {
		logger.Info("Dry run, not publishing.", "version", pkg.Descriptor.Version)
		return true, nil
	}

	if b.cfg.ShrinkWrap {
		if _, err := b.exec.Run(ctx, pkg.Dir, "npm", "shrinkwrap"); err != nil {
			return false, pipeline.Recoverable(err, b.cfg.ContinueOnError)
		}
	}
	if _, err := b.exec.Run(ctx, pkg.Dir, "npm", "publish"); err != nil {
		return false, pipeline.Recoverable(err, b.cfg.ContinueOnError)
	}

	logger.Info("✅ Published workspace package.", "version", pkg.Descriptor.Version)
	return true, nil
}

// applyVersionBump moves the package to its next version and updates both
// package.json and the in-flight item so later stages see the new content.
func (b *binding) applyVersionBump(ctx context.Context, pkg *pipeline.Package) error {
	desc := pkg.Descriptor
	version, err := manifest.Bump(desc.Version, b.bump)
	if err != nil {
		return errors.Wrapf(err, "bumping %q", desc.Name)
	}
	ctxlog.FromContext(ctx).Debug("Bumping workspace package version.", "from", desc.Version, "to", version)

	desc.SetVersion(version)
	data, err := desc.Encode()
	if err != nil {
		return err
	}
	if !b.cfg.DryRun {
		if err := fsutil.WriteFileAtomic(pkg.Item.Path, data, 0o644); err != nil {
			return err
		}
	}
	pkg.Item.Contents = data
	return nil
}

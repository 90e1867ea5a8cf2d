// Package cucumber runs a package's cucumber feature files.
package cucumber

import (
	"context"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"github.com/specialistvlad/workgrid/internal/ctxlog"
	"github.com/specialistvlad/workgrid/internal/fsutil"
	"github.com/specialistvlad/workgrid/internal/pipeline"
	"github.com/specialistvlad/workgrid/internal/registry"
	"github.com/specialistvlad/workgrid/internal/shellexec"
)

// Name is the stage name.
const Name = "cucumber"

// ErrCucumberMissing is returned when neither the package nor the workspace
// has cucumber installed.
var ErrCucumberMissing = errors.New("cucumber is not installed")

var cucumberBin = filepath.Join(fsutil.ModulesDir, "cucumber", "bin", "cucumber.js")

// Config holds the cucumber stage settings.
type Config struct {
	ContinueOnError bool `mapstructure:"continue_on_error"`
	// Node is the node executable used to start cucumber.
	Node string `mapstructure:"node"`
}

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the stage with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterStage(Name, New)
}

type binding struct {
	cfg  Config
	root string
	exec shellexec.Executor
}

// New builds a cucumber stage.
func New(env registry.Env) (pipeline.Stage, error) {
	cfg := Config{ContinueOnError: true, Node: "node"}
	if err := registry.DecodeSettings(env.Settings, &cfg); err != nil {
		return nil, err
	}
	return pipeline.NewStage(Name, env.Options, &binding{cfg: cfg, root: env.Options.Cwd, exec: env.Exec}, testPackage), nil
}

func testPackage(ctx context.Context, b *binding, pkg *pipeline.Package) (bool, error) {
	ctx = ctxlog.With(ctx, "package", pkg.Name())
	logger := ctxlog.FromContext(ctx)

	features, err := firstMatch(pkg.Dir, "features", "*/features")
	if err != nil {
		return false, pipeline.Recoverable(err, b.cfg.ContinueOnError)
	}
	if features == "" {
		logger.Warn("Could not find a 'features' folder.")
		return true, nil
	}

	bin := b.cucumberPath(pkg.Dir)
	if bin == "" {
		return false, pipeline.Recoverable(ErrCucumberMissing, b.cfg.ContinueOnError)
	}

	args := []string{bin, features}
	for _, folder := range []string{"support", "step_definitions"} {
		found, err := firstMatch(pkg.Dir, folder, "*/"+folder)
		if err != nil {
			return false, pipeline.Recoverable(err, b.cfg.ContinueOnError)
		}
		if found != "" {
			args = append(args, "-r", found)
		}
	}

	logger.Info("▶️ Running cucumber for workspace package.", "features", features)
	if _, err := b.exec.Run(ctx, pkg.Dir, b.cfg.Node, args...); err != nil {
		return false, pipeline.Recoverable(errors.Wrapf(err, "cucumber failed for %q", pkg.Name()), b.cfg.ContinueOnError)
	}
	logger.Info("✅ Cucumber passed for workspace package.")
	return true, nil
}

// cucumberPath prefers the package's own cucumber over the workspace one.
// It returns "" when neither exists.
func (b *binding) cucumberPath(dir string) string {
	return lo.FindOrElse([]string{
		filepath.Join(dir, cucumberBin),
		filepath.Join(b.root, cucumberBin),
	}, "", fsutil.Exists)
}

// firstMatch returns the first directory matching any of patterns,
// relative to dir.
func firstMatch(dir string, patterns ...string) (string, error) {
	for _, pattern := range patterns {
		matches, err := fsutil.Glob(dir, pattern)
		if err != nil {
			return "", err
		}
		for _, m := range matches {
			if fsutil.IsDir(filepath.Join(dir, m)) {
				return m, nil
			}
		}
	}
	return "", nil
}

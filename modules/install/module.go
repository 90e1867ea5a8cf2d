// Package install links workspace siblings into each package and installs
// the remaining dependencies with npm.
package install

import (
	"context"
	"path/filepath"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
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
const Name = "install"

// chunkSize bounds the packages passed to one npm invocation; command
// lines are not unbounded.
const chunkSize = 50

// defaultRegistry keys the install list that uses npm's configured registry.
const defaultRegistry = "*"

// LinkPreference picks the link target when a dependency is both a
// workspace package and an external package.
type LinkPreference string

const (
	PreferWorkspace LinkPreference = "workspace"
	PreferExternal  LinkPreference = "external"
)

// Config holds the install stage settings.
type Config struct {
	ContinueOnError bool `mapstructure:"continue_on_error"`
	// MinimizeSizeOnDisk installs dev and optional dependencies once at the
	// workspace root when the copy there satisfies the range.
	MinimizeSizeOnDisk bool `mapstructure:"minimize_size_on_disk"`
	// RegistryMap maps a package name to the registry it installs from.
	RegistryMap map[string]string `mapstructure:"registry_map"`
	// ExternalPackages maps a package name to a directory outside the
	// workspace that is linked instead of installed.
	ExternalPackages map[string]string   `mapstructure:"external_packages"`
	LinkPreference   LinkPreference      `mapstructure:"link_preference"`
	Hooks            []registry.HookSpec `mapstructure:"hooks"`
}

// DefaultConfig returns the install defaults.
func DefaultConfig() Config {
	return Config{
		ContinueOnError:    true,
		MinimizeSizeOnDisk: true,
		LinkPreference:     PreferWorkspace,
	}
}

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the stage with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterStage(Name, New)
}

type binding struct {
	cfg     Config
	opts    pipeline.Options
	exec    shellexec.Executor
	actions []action.Action
}

// New builds an install stage.
func New(env registry.Env) (pipeline.Stage, error) {
	cfg := DefaultConfig()
	if err := registry.DecodeSettings(env.Settings, &cfg); err != nil {
		return nil, err
	}
	switch cfg.LinkPreference {
	case PreferWorkspace, PreferExternal:
	default:
		return nil, errors.Newf("invalid link_preference %q: must be 'workspace' or 'external'", cfg.LinkPreference)
	}

	b := &binding{
		cfg:     cfg,
		opts:    env.Options,
		exec:    env.Exec,
		actions: registry.CallerActions(env, cfg.Hooks),
	}
	return pipeline.NewStage(Name, env.Options, b, installPackage), nil
}

func installPackage(ctx context.Context, b *binding, pkg *pipeline.Package) (bool, error) {
	ctx = ctxlog.With(ctx, "package", pkg.Name())
	logger := ctxlog.FromContext(ctx)
	logger.Info("▶️ Installing workspace package.")

	if err := b.install(ctx, pkg); err != nil {
		return false, pipeline.Recoverable(errors.Wrapf(err, "installing workspace package %q", pkg.Name()), b.cfg.ContinueOnError)
	}
	if err := pkg.RunHooks(ctx, extension.PostInstall, b.actions, b.exec); err != nil {
		return false, pipeline.Recoverable(err, b.cfg.ContinueOnError)
	}

	logger.Info("✅ Installed workspace package.")
	return true, nil
}

// installLists groups "name@range" specs by registry.
type installLists map[string][]string

func (l installLists) add(registryURL, spec string) {
	if registryURL == "" {
		registryURL = defaultRegistry
	}
	l[registryURL] = append(l[registryURL], spec)
}

func (b *binding) install(ctx context.Context, pkg *pipeline.Package) error {
	logger := ctxlog.FromContext(ctx)
	desc := pkg.Descriptor

	packageDeps := installLists{}
	workspaceDeps := installLists{}

	for _, name := range manifest.DependencyNames(desc.Dependencies) {
		linked, err := b.link(ctx, pkg, name)
		if err != nil {
			return err
		}
		if linked {
			continue
		}
		packageDeps.add(b.cfg.RegistryMap[name], spec(name, desc.Dependencies[name]))
	}

	devDeps := lo.Assign(desc.DevDependencies, desc.OptionalDependencies)
	for _, name := range manifest.DependencyNames(devDeps) {
		linked, err := b.link(ctx, pkg, name)
		if err != nil {
			return err
		}
		if linked {
			continue
		}

		constraint := devDeps[name]
		if !b.cfg.MinimizeSizeOnDisk {
			packageDeps.add(b.cfg.RegistryMap[name], spec(name, constraint))
			continue
		}

		rootCopy := filepath.Join(b.opts.Cwd, fsutil.ModulesDir, filepath.FromSlash(name))
		if !fsutil.Exists(rootCopy) {
			workspaceDeps.add(b.cfg.RegistryMap[name], spec(name, constraint))
			continue
		}

		version := installedVersion(rootCopy)
		ok, err := manifest.Satisfies(version, constraint)
		if err != nil || !ok {
			logger.Warn("Package cannot be satisfied by the workspace version, installing locally.", "dependency", name, "version", version, "range", constraint)
			packageDeps.add(b.cfg.RegistryMap[name], spec(name, constraint))
		}
	}

	// Peers are never installed by us; a workspace or external copy is
	// linked so the package resolves the same instance its host does.
	for _, name := range manifest.DependencyNames(desc.PeerDependencies) {
		if _, err := b.link(ctx, pkg, name); err != nil {
			return err
		}
	}

	logInstallPlan(ctx, packageDeps, workspaceDeps)

	if err := b.npmInstall(ctx, pkg.Dir, packageDeps, false); err != nil {
		return err
	}
	return b.npmInstall(ctx, b.opts.Cwd, workspaceDeps, true)
}

// link creates node_modules/<name> in the package when name is a workspace
// or external package, and reports whether it did so.
func (b *binding) link(ctx context.Context, pkg *pipeline.Package, name string) (bool, error) {
	logger := ctxlog.FromContext(ctx)

	mapped, inWorkspace := pkg.Packages[name]
	externalDir, isExternal := b.cfg.ExternalPackages[name]
	if b.opts.DisableExternalLinks {
		isExternal = false
	}
	if isExternal && !filepath.IsAbs(externalDir) {
		externalDir = filepath.Join(b.opts.Cwd, externalDir)
	}

	var target string
	switch {
	case inWorkspace && isExternal:
		if b.cfg.LinkPreference == PreferExternal {
			logger.Warn("Package is both a workspace and an external package, linking the external one.", "dependency", name, "target", externalDir)
			target = externalDir
		} else {
			logger.Warn("Package is both a workspace and an external package, linking the workspace one.", "dependency", name, "target", mapped.Dir)
			target = mapped.Dir
		}
	case inWorkspace:
		if _, ok := b.cfg.RegistryMap[name]; ok {
			logger.Warn("Workspace package has an entry in the registry map. Ignoring.", "dependency", name)
		}
		target = mapped.Dir
	case isExternal:
		target = externalDir
	default:
		return false, nil
	}

	created, err := fsutil.LinkPackage(pkg.Dir, name, target)
	if err != nil {
		return false, err
	}
	logger.Debug("Linked package.", "dependency", name, "target", target, "created", created)
	return true, nil
}

func (b *binding) npmInstall(ctx context.Context, dir string, lists installLists, atRoot bool) error {
	registries := lo.Keys(lists)
	sort.Strings(registries)

	for _, registryURL := range registries {
		for _, chunk := range lo.Chunk(lists[registryURL], chunkSize) {
			args := append([]string{"install"}, chunk...)
			if atRoot {
				args = append(args, "--ignore-scripts")
			}
			if registryURL != defaultRegistry {
				args = append(args, "--registry", registryURL)
			}
			if _, err := b.exec.Run(ctx, dir, "npm", args...); err != nil {
				return err
			}
		}
	}
	return nil
}

func spec(name, constraint string) string {
	return name + "@" + manifest.ToSemverRange(constraint)
}

// installedVersion returns the version of the package installed in dir, or
// "" when it cannot be read.
func installedVersion(dir string) string {
	desc, err := manifest.ReadFile(filepath.Join(dir, manifest.FileName))
	if err != nil {
		return ""
	}
	return desc.Version
}

func logInstallPlan(ctx context.Context, packageDeps, workspaceDeps installLists) {
	logger := ctxlog.FromContext(ctx)
	for _, level := range []struct {
		name  string
		lists installLists
	}{{"workspace package", packageDeps}, {"workspace", workspaceDeps}} {
		for registryURL, specs := range level.lists {
			logger.Debug("Installing dependencies.", "level", level.name, "registry", registryURL, "packages", specs)
		}
	}
}

// Package compile runs the TypeScript compiler over each package.
package compile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	jsoniter "github.com/json-iterator/go"
	"github.com/samber/lo"
	"github.com/specialistvlad/workgrid/internal/action"
	"github.com/specialistvlad/workgrid/internal/ctxlog"
	"github.com/specialistvlad/workgrid/internal/extension"
	"github.com/specialistvlad/workgrid/internal/fsutil"
	"github.com/specialistvlad/workgrid/internal/pipeline"
	"github.com/specialistvlad/workgrid/internal/registry"
	"github.com/specialistvlad/workgrid/internal/shellexec"
)

// Name is the stage name.
const Name = "compile"

const (
	configPattern = "tsconfig*.json"
	argsFileName  = "_%d__tsc_args.tmp"
)

// Config holds the compile stage settings.
type Config struct {
	ContinueOnError bool                `mapstructure:"continue_on_error"`
	Hooks           []registry.HookSpec `mapstructure:"hooks"`
}

// tsConfig is the part of a tsconfig file the compiler arguments come from.
type tsConfig struct {
	CompilerOptions map[string]any `json:"compilerOptions"`
	Files           []string       `json:"files"`
	Exclude         []string       `json:"exclude"`
}

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the stage with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterStage(Name, New)
}

type binding struct {
	cfg     Config
	root    string
	exec    shellexec.Executor
	actions []action.Action
}

// New builds a compile stage.
func New(env registry.Env) (pipeline.Stage, error) {
	cfg := Config{ContinueOnError: true}
	if err := registry.DecodeSettings(env.Settings, &cfg); err != nil {
		return nil, err
	}
	b := &binding{
		cfg:     cfg,
		root:    env.Options.Cwd,
		exec:    env.Exec,
		actions: registry.CallerActions(env, cfg.Hooks),
	}
	return pipeline.NewStage(Name, env.Options, b, compilePackage), nil
}

func compilePackage(ctx context.Context, b *binding, pkg *pipeline.Package) (bool, error) {
	ctx = ctxlog.With(ctx, "package", pkg.Name())
	logger := ctxlog.FromContext(ctx)

	configs, err := b.configFiles(pkg)
	if err != nil {
		return false, pipeline.Recoverable(err, b.cfg.ContinueOnError)
	}
	if len(configs) == 0 {
		logger.Warn("Could not find a 'tsconfig.json' file.")
		return true, nil
	}

	logger.Info("▶️ Compiling workspace package.", "configs", configs)
	if err := b.compile(ctx, pkg, configs); err != nil {
		return false, pipeline.Recoverable(errors.Wrapf(err, "compiling workspace package %q", pkg.Name()), b.cfg.ContinueOnError)
	}
	if err := pkg.RunHooks(ctx, extension.PostCompile, b.actions, b.exec); err != nil {
		return false, pipeline.Recoverable(err, b.cfg.ContinueOnError)
	}

	logger.Info("✅ Compiled workspace package.")
	return true, nil
}

// configFiles returns the tsconfig files named by the hook file, or the
// tsconfig*.json files of the package.
func (b *binding) configFiles(pkg *pipeline.Package) ([]string, error) {
	hooks, err := pkg.Hooks()
	if err != nil {
		return nil, err
	}
	if configs := hooks.CompilerConfigs(); len(configs) > 0 {
		return configs, nil
	}
	return fsutil.Glob(pkg.Dir, configPattern)
}

func (b *binding) compile(ctx context.Context, pkg *pipeline.Package, configs []string) error {
	var argsFiles []string
	defer func() {
		for _, name := range argsFiles {
			_ = os.Remove(filepath.Join(pkg.Dir, name))
		}
	}()

	for idx, configFile := range configs {
		cfg, err := readConfig(filepath.Join(pkg.Dir, configFile))
		if err != nil {
			return err
		}
		args, err := compilerArgs(pkg.Dir, cfg)
		if err != nil {
			return err
		}

		name := fmt.Sprintf(argsFileName, idx)
		argsFiles = append(argsFiles, name)
		if err := os.WriteFile(filepath.Join(pkg.Dir, name), []byte(args), 0o644); err != nil {
			return errors.Wrapf(err, "writing compiler arguments for %s", configFile)
		}
		ctxlog.FromContext(ctx).Debug("Compiler arguments written.", "config", configFile, "argsFile", name, "excluded", cfg.Exclude)
	}

	tsc := b.compilerPath(pkg.Dir)
	for _, name := range argsFiles {
		if _, err := b.exec.Run(ctx, pkg.Dir, tsc, "@"+name); err != nil {
			return err
		}
	}
	return nil
}

// compilerPath prefers the package's own TypeScript over the workspace one.
func (b *binding) compilerPath(dir string) string {
	base := b.root
	if fsutil.IsDir(filepath.Join(dir, fsutil.ModulesDir, "typescript")) {
		base = dir
	}
	return filepath.Join(base, fsutil.ModulesDir, ".bin", "tsc")
}

func readConfig(path string) (*tsConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	cfg := &tsConfig{}
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	return cfg, nil
}

// compilerArgs renders a tsc response file: compiler options as flags on
// the first line, then one quoted source file per line. Without a "files"
// list every .ts file outside the excluded folders is compiled.
func compilerArgs(dir string, cfg *tsConfig) (string, error) {
	var b strings.Builder

	keys := lo.Keys(cfg.CompilerOptions)
	sort.Strings(keys)
	for _, key := range keys {
		switch v := cfg.CompilerOptions[key].(type) {
		case string:
			fmt.Fprintf(&b, "--%s %s ", key, v)
		case bool:
			if v {
				fmt.Fprintf(&b, "--%s ", key)
			}
		case float64:
			fmt.Fprintf(&b, "--%s %s ", key, strconv.FormatFloat(v, 'f', -1, 64))
		}
	}

	files := cfg.Files
	if files == nil {
		var err error
		files, err = sourceFiles(dir, cfg.Exclude)
		if err != nil {
			return "", err
		}
	}
	for _, f := range files {
		fmt.Fprintf(&b, "\n%q", f)
	}
	return b.String(), nil
}

// sourceFiles lists the .ts files at the top of dir and below every folder
// that is not excluded.
func sourceFiles(dir string, exclude []string) ([]string, error) {
	files, err := fsutil.Glob(dir, "*.ts")
	if err != nil {
		return nil, err
	}
	folders, err := fsutil.SubDirs(dir)
	if err != nil {
		return nil, err
	}

	excluded := lo.SliceToMap(exclude, func(folder string) (string, struct{}) {
		return strings.Trim(filepath.ToSlash(folder), "./"), struct{}{}
	})
	for _, folder := range folders {
		if _, skip := excluded[folder]; skip || folder == fsutil.ModulesDir || strings.HasPrefix(folder, ".") {
			continue
		}
		nested, err := fsutil.Glob(dir, folder+"/**/*.ts")
		if err != nil {
			return nil, err
		}
		files = append(files, nested...)
	}
	return files, nil
}

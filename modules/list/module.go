// Package list prints the packages of the stream in traversal order, or the
// packages that depend on the selected one.
package list

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	jsoniter "github.com/json-iterator/go"
	"github.com/specialistvlad/workgrid/internal/ctxlog"
	"github.com/specialistvlad/workgrid/internal/pipeline"
	"github.com/specialistvlad/workgrid/internal/registry"
	"github.com/specialistvlad/workgrid/internal/workspace"
)

// Name is the stage name.
const Name = "list"

// Config holds the list stage settings.
type Config struct {
	// Format is "text" (default) or "json", one object per line.
	Format string `mapstructure:"format"`
	// Dependants lists the packages depending on the selected package
	// instead of the stream.
	Dependants bool `mapstructure:"dependants"`
}

// entry is one printed package.
type entry struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Path    string `json:"path"`
}

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the stage with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterStage(Name, New)
}

type binding struct {
	format string
	root   string
	out    io.Writer
	// dependantsOf is set in dependants mode.
	dependantsOf string
	workspace    *workspace.Registry
}

// New builds a list stage writing to env.Out, or stdout when unset.
func New(env registry.Env) (pipeline.Stage, error) {
	cfg := Config{Format: "text"}
	if err := registry.DecodeSettings(env.Settings, &cfg); err != nil {
		return nil, err
	}
	if cfg.Format != "text" && cfg.Format != "json" {
		return nil, errors.Newf("invalid list format %q, want text or json", cfg.Format)
	}

	b := &binding{format: cfg.Format, root: env.Options.Cwd, out: env.Out}
	if b.out == nil {
		b.out = os.Stdout
	}
	if cfg.Dependants {
		if env.Options.Package == "" {
			return nil, errors.New("listing dependants requires a package")
		}
		if env.Workspace == nil {
			return nil, errors.New("listing dependants requires a loaded workspace")
		}
		b.dependantsOf = env.Options.Package
		b.workspace = env.Workspace
	}
	return pipeline.NewStage(Name, env.Options, b, printPackage), nil
}

func printPackage(ctx context.Context, b *binding, pkg *pipeline.Package) (bool, error) {
	if b.dependantsOf != "" {
		return true, b.printDependants(ctx, pkg)
	}
	ctxlog.FromContext(ctx).Debug("Listing package.", "package", pkg.Name())
	return true, b.print(entry{Name: pkg.Name(), Version: pkg.Descriptor.Version, Path: b.relative(pkg.Dir)})
}

// printDependants prints the dependants of the selected package when it
// reaches the stage. Its dependencies pass through unprinted.
func (b *binding) printDependants(ctx context.Context, pkg *pipeline.Package) error {
	if pkg.Name() != b.dependantsOf {
		return nil
	}
	records, err := b.workspace.Dependants(ctx, pkg.Name())
	if err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Debug("Listing dependants.", "package", pkg.Name(), "dependants", len(records))
	for _, rec := range records {
		if err := b.print(entry{Name: rec.Name, Version: rec.Descriptor.Version, Path: b.relative(rec.Dir())}); err != nil {
			return err
		}
	}
	return nil
}

func (b *binding) print(e entry) error {
	if b.format == "json" {
		line, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(e)
		if err != nil {
			return errors.Wrapf(err, "encoding %q", e.Name)
		}
		_, err = fmt.Fprintf(b.out, "%s\n", line)
		return errors.Wrap(err, "writing listing")
	}

	version := e.Version
	if version == "" {
		version = "(no version)"
	}
	_, err := fmt.Fprintf(b.out, "%s %s %s\n", e.Name, version, e.Path)
	return errors.Wrap(err, "writing listing")
}

func (b *binding) relative(dir string) string {
	if b.root == "" {
		return dir
	}
	rel, err := filepath.Rel(b.root, dir)
	if err != nil {
		return dir
	}
	return filepath.ToSlash(rel)
}

package pipeline

import (
	"context"
	"io"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/specialistvlad/workgrid/internal/action"
	"github.com/specialistvlad/workgrid/internal/ctxlog"
	"github.com/specialistvlad/workgrid/internal/extension"
	"github.com/specialistvlad/workgrid/internal/manifest"
)

// Item is one manifest flowing through the pipeline together with the
// per-package context stages may need.
type Item struct {
	// Path is the manifest file path.
	Path string
	// Contents is the buffered manifest. Stages that rewrite the manifest
	// (a version bump) replace it so later stages see the new content.
	Contents []byte
	// Reader marks an unbuffered item. Stages reject such items.
	Reader io.Reader
	// Extension resolves the package's hook file on first use.
	Extension *extension.Lazy
}

// NewItem returns a buffered item whose hook file is resolved lazily.
func NewItem(path string, contents []byte) *Item {
	return &Item{
		Path:      path,
		Contents:  contents,
		Extension: extension.NewLazy(filepath.Dir(path)),
	}
}

// Dir returns the package directory.
func (i *Item) Dir() string {
	return filepath.Dir(i.Path)
}

// MappedPackage is a package seen earlier by the same stage.
type MappedPackage struct {
	Descriptor *manifest.Descriptor
	Dir        string
}

// PackageMap maps package names to the packages a stage has already seen.
type PackageMap map[string]MappedPackage

// Package is what a PackageFunc receives for each item.
type Package struct {
	Descriptor *manifest.Descriptor
	Dir        string
	Item       *Item
	// Packages holds every package the stage has seen so far, this one
	// included.
	Packages PackageMap
}

// Name returns the package name.
func (p *Package) Name() string {
	return p.Descriptor.Name
}

// Hooks returns the package's hook file.
func (p *Package) Hooks() (*extension.File, error) {
	return p.Item.Extension.Get()
}

// RunHooks runs the hooks for kind against the package: caller actions
// first, then the ones declared in the package's hook file.
func (p *Package) RunHooks(ctx context.Context, kind extension.Kind, caller []action.Action, runner action.ScriptRunner) error {
	file, err := p.Hooks()
	if err != nil {
		return err
	}
	actions := action.Merge(caller, file.Hooks(kind, runner))
	if len(actions) == 0 {
		return nil
	}

	ctxlog.FromContext(ctx).Info("Running hooks for workspace package.", "package", p.Name(), "hook", string(kind), "count", len(actions))
	if err := action.Execute(ctx, actions, p.Descriptor, p.Dir); err != nil {
		return errors.Wrapf(err, "%s hook", kind)
	}
	return nil
}

package extension

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/workgrid/internal/action"
	"github.com/specialistvlad/workgrid/internal/manifest"
	"github.com/zclconf/go-cty/cty"
)

// File is a decoded hook file. The zero value (and a nil *File) has no hooks.
type File struct {
	Path string
	root fileRoot
}

// Load parses the hook file in dir. A package without a hook file yields an
// empty File and no error.
func Load(dir string) (*File, error) {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return &File{}, nil
		}
		return nil, errors.Wrapf(err, "error accessing hook file %s", path)
	}

	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse hook file %s: %w", path, diags)
	}

	f := &File{Path: path}
	diags = gohcl.DecodeBody(hclFile.Body, nil, &f.root)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode hook file %s: %w", path, diags)
	}
	return f, nil
}

func (f *File) blocks(kind Kind) []*hookBlock {
	if f == nil {
		return nil
	}
	switch kind {
	case PostInstall:
		return f.root.PostInstall
	case PrePublish:
		return f.root.PrePublish
	case PostUninstall:
		return f.root.PostUninstall
	case PostCompile:
		return f.root.PostCompile
	}
	return nil
}

// Hooks converts the blocks of the given kind into actions, in file order.
// Each action runs its command through runner.
func (f *File) Hooks(kind Kind, runner action.ScriptRunner) []action.Action {
	blocks := f.blocks(kind)
	actions := make([]action.Action, 0, len(blocks))
	for _, b := range blocks {
		a := action.Shell(string(kind)+"."+b.Name, b.Run, runner)
		a.Condition = conditionFor(b.Condition)
		actions = append(actions, a)
	}
	return actions
}

// CompilerConfigs returns the tsconfig files named by the
// typescript_compiler block, or nil when the file has none.
func (f *File) CompilerConfigs() []string {
	if f == nil || f.root.Compiler == nil {
		return nil
	}
	return f.root.Compiler.ConfigFiles
}

func conditionFor(expr hcl.Expression) action.Condition {
	if expr == nil {
		return nil
	}
	return func(_ context.Context, desc *manifest.Descriptor, dir string) (bool, error) {
		val, diags := expr.Value(evalContext(desc, dir))
		if diags.HasErrors() {
			return false, diags
		}
		if val.IsNull() {
			return true, nil
		}
		if !val.Type().Equals(cty.Bool) {
			return false, errors.Newf("condition must be a bool, got %s", val.Type().FriendlyName())
		}
		if !val.IsKnown() {
			return false, errors.New("condition value is unknown")
		}
		return val.True(), nil
	}
}

// Lazy defers loading a package's hook file until a stage asks for it,
// and loads it at most once.
type Lazy struct {
	dir  string
	once sync.Once
	file *File
	err  error
}

// NewLazy returns a Lazy for the package located in dir.
func NewLazy(dir string) *Lazy {
	return &Lazy{dir: dir}
}

// Get returns the loaded hook file.
func (l *Lazy) Get() (*File, error) {
	if l == nil {
		return &File{}, nil
	}
	l.once.Do(func() {
		l.file, l.err = Load(l.dir)
	})
	return l.file, l.err
}

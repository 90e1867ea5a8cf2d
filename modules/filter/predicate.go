package filter

import (
	"github.com/cockroachdb/errors"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/specialistvlad/workgrid/internal/manifest"
)

// Predicate decides whether a package stays in the stream.
type Predicate func(desc *manifest.Descriptor, dir string) (bool, error)

// HasDependency keeps packages that declare name in dependencies or
// devDependencies.
func HasDependency(name string) Predicate {
	return func(desc *manifest.Descriptor, _ string) (bool, error) {
		return desc.HasDependency(name), nil
	}
}

// exprEnv is what a filter expression can see.
type exprEnv struct {
	Name                 string            `expr:"name"`
	Version              string            `expr:"version"`
	Dir                  string            `expr:"dir"`
	Dependencies         map[string]string `expr:"dependencies"`
	DevDependencies      map[string]string `expr:"devDependencies"`
	PeerDependencies     map[string]string `expr:"peerDependencies"`
	OptionalDependencies map[string]string `expr:"optionalDependencies"`
	Scripts              map[string]string `expr:"scripts"`
}

// Expr compiles a boolean expression over the package descriptor, for
// example `"react" in dependencies && name startsWith "@acme/"`.
func Expr(source string) (Predicate, error) {
	program, err := expr.Compile(source, expr.Env(exprEnv{}), expr.AsBool())
	if err != nil {
		return nil, errors.Wrapf(err, "compiling filter expression %q", source)
	}
	return func(desc *manifest.Descriptor, dir string) (bool, error) {
		return evaluate(program, desc, dir)
	}, nil
}

func evaluate(program *vm.Program, desc *manifest.Descriptor, dir string) (bool, error) {
	out, err := expr.Run(program, exprEnv{
		Name:                 desc.Name,
		Version:              desc.Version,
		Dir:                  dir,
		Dependencies:         desc.Dependencies,
		DevDependencies:      desc.DevDependencies,
		PeerDependencies:     desc.PeerDependencies,
		OptionalDependencies: desc.OptionalDependencies,
		Scripts:              desc.Scripts,
	})
	if err != nil {
		return false, errors.Wrapf(err, "evaluating filter for %q", desc.Name)
	}
	return out.(bool), nil
}

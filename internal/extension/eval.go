package extension

import (
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/workgrid/internal/manifest"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// evalContext exposes the package being processed to hook conditions.
func evalContext(desc *manifest.Descriptor, dir string) *hcl.EvalContext {
	pkg := cty.ObjectVal(map[string]cty.Value{
		"name":             cty.StringVal(desc.Name),
		"version":          cty.StringVal(desc.Version),
		"path":             cty.StringVal(dir),
		"dependencies":     stringMap(desc.Dependencies),
		"dev_dependencies": stringMap(desc.DevDependencies),
	})

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"package": pkg,
		},
		Functions: map[string]function.Function{
			"contains":    stdlib.HasIndexFunc,
			"length":      stdlib.LengthFunc,
			"lower":       stdlib.LowerFunc,
			"upper":       stdlib.UpperFunc,
			"file_exists": fileExistsFunc(dir),
		},
	}
}

func stringMap(m map[string]string) cty.Value {
	if len(m) == 0 {
		return cty.MapValEmpty(cty.String)
	}
	vals := make(map[string]cty.Value, len(m))
	for k, v := range m {
		vals[k] = cty.StringVal(v)
	}
	return cty.MapVal(vals)
}

// fileExistsFunc reports whether a path relative to the package exists.
func fileExistsFunc(dir string) function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{
			{Name: "path", Type: cty.String},
		},
		Type: function.StaticReturnType(cty.Bool),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			_, err := os.Stat(filepath.Join(dir, args[0].AsString()))
			return cty.BoolVal(err == nil), nil
		},
	})
}

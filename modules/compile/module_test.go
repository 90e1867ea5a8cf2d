package compile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/workgrid/internal/pipeline"
	"github.com/specialistvlad/workgrid/internal/registry"
	"github.com/specialistvlad/workgrid/internal/testutil"
	"github.com/specialistvlad/workgrid/internal/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// argsCapture records the contents of each response file at the moment tsc
// is invoked, since the stage deletes them afterwards.
type argsCapture struct {
	testutil.FakeExec
	args map[string]string
}

func (c *argsCapture) Run(ctx context.Context, dir, name string, args ...string) (string, error) {
	for _, a := range args {
		data, err := os.ReadFile(filepath.Join(dir, a[1:]))
		if err == nil {
			c.args[filepath.Base(dir)+"/"+a[1:]] = string(data)
		}
	}
	return c.FakeExec.Run(ctx, dir, filepath.Base(name), args...)
}

func TestCompile(t *testing.T) {
	ctx, logs := testutil.Context(t)
	root := testutil.WriteWorkspace(t, map[string]string{
		"lib/package.json":                         testutil.Manifest("lib", "1.0.0", nil),
		"lib/tsconfig.json":                        `{"compilerOptions": {"target": "es2019", "declaration": true, "noEmit": false}, "exclude": ["test"]}`,
		"lib/index.ts":                             "",
		"lib/src/a.ts":                             "",
		"lib/test/a.spec.ts":                       "",
		"lib/node_modules/typescript/package.json": testutil.Manifest("typescript", "5.1.0", nil),
		"lib/workspace.hcl":                        `post_typescript_compile "bundle" { run = "echo bundled" }`,
		"app/package.json":                         testutil.Manifest("app", "1.0.0", map[string]map[string]string{"dependencies": {"lib": "1.0.0"}}),
		"app/tsconfig.build.json":                  `{"compilerOptions": {"outDir": "dist"}, "files": ["main.ts"]}`,
		"app/tsconfig.json":                        `{"files": ["main.ts", "extra.ts"]}`,
		"docs/package.json":                        testutil.Manifest("docs", "1.0.0", nil),
	})
	reg, err := workspace.Load(ctx, root, workspace.DiscoverOptions{}, workspace.Policy{})
	require.NoError(t, err)

	exec := &argsCapture{args: map[string]string{}}
	env := registry.Env{Exec: exec}
	env.Options.Cwd = root
	st, err := New(env)
	require.NoError(t, err)

	out, err := pipeline.Run(ctx, reg.Source(workspace.CollectOptions{}), st)
	require.NoError(t, err)
	assert.Len(t, out, 3, "a package without tsconfig is kept")

	assert.Equal(t, []string{
		"lib: tsc @_0__tsc_args.tmp",
		"lib: echo bundled",
		"app: tsc @_0__tsc_args.tmp",
		"app: tsc @_1__tsc_args.tmp",
	}, exec.Commands())

	assert.Equal(t, "--declaration --target es2019 \n\"index.ts\"\n\"src/a.ts\"", exec.args["lib/_0__tsc_args.tmp"])
	assert.Equal(t, "--outDir dist \n\"main.ts\"", exec.args["app/_0__tsc_args.tmp"])
	assert.Equal(t, "\n\"main.ts\"\n\"extra.ts\"", exec.args["app/_1__tsc_args.tmp"])

	assert.NoFileExists(t, filepath.Join(root, "lib", "_0__tsc_args.tmp"))
	assert.NoFileExists(t, filepath.Join(root, "app", "_1__tsc_args.tmp"))
	assert.Contains(t, logs.String(), "Could not find a 'tsconfig.json' file.")
}

func TestCompile_ConfigsFromHookFile(t *testing.T) {
	ctx, _ := testutil.Context(t)
	root := testutil.WriteWorkspace(t, map[string]string{
		"lib/package.json":       testutil.Manifest("lib", "1.0.0", nil),
		"lib/tsconfig.json":      `{"files": ["ignored.ts"]}`,
		"lib/tsconfig.prod.json": `{"files": ["index.ts"]}`,
		"lib/workspace.hcl":      `typescript_compiler { config_files = ["tsconfig.prod.json"] }`,
	})
	reg, err := workspace.Load(ctx, root, workspace.DiscoverOptions{}, workspace.Policy{})
	require.NoError(t, err)

	exec := &argsCapture{args: map[string]string{}}
	env := registry.Env{Exec: exec}
	env.Options.Cwd = root
	st, err := New(env)
	require.NoError(t, err)

	_, err = pipeline.Run(ctx, reg.Source(workspace.CollectOptions{}), st)
	require.NoError(t, err)
	assert.Equal(t, []string{"lib: tsc @_0__tsc_args.tmp"}, exec.Commands())
	assert.Equal(t, "\n\"index.ts\"", exec.args["lib/_0__tsc_args.tmp"])
}

func TestCompilerPath(t *testing.T) {
	root := testutil.WriteWorkspace(t, map[string]string{
		"local/node_modules/typescript/package.json": "{}",
		"shared/package.json":                        "{}",
	})
	b := &binding{root: root}

	assert.Equal(t, filepath.Join(root, "local", "node_modules", ".bin", "tsc"), b.compilerPath(filepath.Join(root, "local")))
	assert.Equal(t, filepath.Join(root, "node_modules", ".bin", "tsc"), b.compilerPath(filepath.Join(root, "shared")))
}

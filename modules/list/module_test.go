package list

import (
	"bytes"
	"testing"

	"github.com/specialistvlad/workgrid/internal/pipeline"
	"github.com/specialistvlad/workgrid/internal/registry"
	"github.com/specialistvlad/workgrid/internal/testutil"
	"github.com/specialistvlad/workgrid/internal/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestList(t *testing.T) {
	ctx, _ := testutil.Context(t)
	root := testutil.WriteWorkspace(t, map[string]string{
		"packages/app/package.json": testutil.Manifest("app", "2.1.0", map[string]map[string]string{"dependencies": {"lib": "^1.0.0"}}),
		"packages/lib/package.json": `{"name": "lib"}`,
	})
	reg, err := workspace.Load(ctx, root, workspace.DiscoverOptions{AdditionalPaths: []string{"packages"}}, workspace.Policy{})
	require.NoError(t, err)

	testCases := []struct {
		format string
		want   string
	}{
		{format: "text", want: "lib (no version) packages/lib\napp 2.1.0 packages/app\n"},
		{format: "json", want: `{"name":"lib","version":"","path":"packages/lib"}` + "\n" + `{"name":"app","version":"2.1.0","path":"packages/app"}` + "\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.format, func(t *testing.T) {
			var buf bytes.Buffer
			env := registry.Env{Out: &buf, Settings: map[string]any{"format": tc.format}}
			env.Options.Cwd = root
			st, err := New(env)
			require.NoError(t, err)

			out, err := pipeline.Run(ctx, reg.Source(workspace.CollectOptions{}), st)
			require.NoError(t, err)
			assert.Len(t, out, 2)
			assert.Equal(t, tc.want, buf.String())
		})
	}
}

func TestNew_InvalidFormat(t *testing.T) {
	_, err := New(registry.Env{Settings: map[string]any{"format": "yaml"}})
	assert.ErrorContains(t, err, "invalid list format")
}

func TestList_Dependants(t *testing.T) {
	ctx, _ := testutil.Context(t)
	root := testutil.WriteWorkspace(t, map[string]string{
		"app/package.json":  testutil.Manifest("app", "1.0.0", map[string]map[string]string{"dependencies": {"lib": "^1.0.0", "lodash": "^4.0.0"}}),
		"core/package.json": testutil.Manifest("core", "1.0.0", nil),
		"lib/package.json":  testutil.Manifest("lib", "1.1.0", map[string]map[string]string{"dependencies": {"core": "^1.0.0"}}),
		"tool/package.json": testutil.Manifest("tool", "0.1.0", nil),
	})
	reg, err := workspace.Load(ctx, root, workspace.DiscoverOptions{}, workspace.Policy{})
	require.NoError(t, err)

	testCases := []struct {
		pkg  string
		want string
	}{
		{pkg: "core", want: "lib 1.1.0 lib\napp 1.0.0 app\n"},
		{pkg: "lib", want: "app 1.0.0 app\n"},
		{pkg: "app", want: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.pkg, func(t *testing.T) {
			var buf bytes.Buffer
			env := registry.Env{Out: &buf, Workspace: reg, Settings: map[string]any{"dependants": true}}
			env.Options.Cwd = root
			env.Options.Package = tc.pkg
			st, err := New(env)
			require.NoError(t, err)

			_, err = pipeline.Run(ctx, reg.Source(workspace.CollectOptions{StartingPackage: tc.pkg}), st)
			require.NoError(t, err)
			assert.Equal(t, tc.want, buf.String())
		})
	}
}

func TestNew_DependantsRequiresPackage(t *testing.T) {
	_, err := New(registry.Env{Settings: map[string]any{"dependants": true}})
	assert.ErrorContains(t, err, "requires a package")
}

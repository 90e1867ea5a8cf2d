package uninstall

import (
	"path/filepath"
	"testing"

	"github.com/specialistvlad/workgrid/internal/pipeline"
	"github.com/specialistvlad/workgrid/internal/registry"
	"github.com/specialistvlad/workgrid/internal/testutil"
	"github.com/specialistvlad/workgrid/internal/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUninstall(t *testing.T) {
	ctx, _ := testutil.Context(t)
	root := testutil.WriteWorkspace(t, map[string]string{
		"app/package.json":                 testutil.Manifest("app", "1.0.0", nil),
		"app/node_modules/lodash/index.js": "module.exports = {}",
		"app/.typings/node/node.d.ts":      "",
		"app/src/index.ts":                 "",
		"lib/package.json":                 testutil.Manifest("lib", "1.0.0", nil),
		"lib/workspace.hcl":                `post_uninstall "clean" { run = "rm -rf dist" }`,
	})
	reg, err := workspace.Load(ctx, root, workspace.DiscoverOptions{}, workspace.Policy{})
	require.NoError(t, err)

	exec := &testutil.FakeExec{}
	st, err := New(registry.Env{Exec: exec})
	require.NoError(t, err)

	out, err := pipeline.Run(ctx, reg.Source(workspace.CollectOptions{}), st)
	require.NoError(t, err)
	assert.Len(t, out, 2)

	assert.NoDirExists(t, filepath.Join(root, "app", "node_modules"))
	assert.NoDirExists(t, filepath.Join(root, "app", ".typings"))
	assert.FileExists(t, filepath.Join(root, "app", "src", "index.ts"))
	assert.Equal(t, []string{"lib: rm -rf dist"}, exec.Commands())
}

package cucumber

import (
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/specialistvlad/workgrid/internal/pipeline"
	"github.com/specialistvlad/workgrid/internal/registry"
	"github.com/specialistvlad/workgrid/internal/testutil"
	"github.com/specialistvlad/workgrid/internal/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCucumber(t *testing.T) {
	ctx, logs := testutil.Context(t)
	root := testutil.WriteWorkspace(t, map[string]string{
		"node_modules/cucumber/bin/cucumber.js":     "",
		"lib/package.json":                          testutil.Manifest("lib", "1.0.0", nil),
		"lib/features/login.feature":                "",
		"lib/features/support/world.js":             "",
		"lib/node_modules/cucumber/bin/cucumber.js": "",
		"app/package.json":                          testutil.Manifest("app", "1.0.0", nil),
		"app/test/features/app.feature":             "",
		"app/test/step_definitions/steps.js":        "",
		"docs/package.json":                         testutil.Manifest("docs", "1.0.0", nil),
	})
	reg, err := workspace.Load(ctx, root, workspace.DiscoverOptions{}, workspace.Policy{})
	require.NoError(t, err)

	exec := &testutil.FakeExec{Root: root}
	env := registry.Env{Exec: exec}
	env.Options.Cwd = root
	st, err := New(env)
	require.NoError(t, err)

	out, err := pipeline.Run(ctx, reg.Source(workspace.CollectOptions{}), st)
	require.NoError(t, err)
	assert.Len(t, out, 3)

	assert.Equal(t, []string{
		"app: node " + filepath.Join(root, cucumberBin) + " test/features -r test/step_definitions",
		"lib: node " + filepath.Join(root, "lib", cucumberBin) + " features -r features/support",
	}, exec.Commands())
	assert.Contains(t, logs.String(), "Could not find a 'features' folder.")
}

func TestCucumber_NotInstalled(t *testing.T) {
	ctx, _ := testutil.Context(t)
	root := testutil.WriteWorkspace(t, map[string]string{
		"lib/package.json":           testutil.Manifest("lib", "1.0.0", nil),
		"lib/features/login.feature": "",
	})
	reg, err := workspace.Load(ctx, root, workspace.DiscoverOptions{}, workspace.Policy{})
	require.NoError(t, err)

	exec := &testutil.FakeExec{}
	env := registry.Env{Exec: exec, Settings: map[string]any{"continue_on_error": false}}
	env.Options.Cwd = root
	st, err := New(env)
	require.NoError(t, err)

	_, err = pipeline.Run(ctx, reg.Source(workspace.CollectOptions{}), st)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCucumberMissing))
	assert.Empty(t, exec.Commands())
}

package extension

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/workgrid/internal/action"
	"github.com/specialistvlad/workgrid/internal/manifest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptLog struct {
	scripts []string
}

func (s *scriptLog) RunScript(_ context.Context, _ string, script string) error {
	s.scripts = append(s.scripts, script)
	return nil
}

// writeHookFile creates a package directory containing the given hook file.
func writeHookFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644))
	return dir
}

func TestLoad_MissingFile(t *testing.T) {
	f, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, f.Hooks(PostInstall, &scriptLog{}))
	assert.Nil(t, f.CompilerConfigs())
}

func TestLoad_InvalidHCL(t *testing.T) {
	dir := writeHookFile(t, `post_install "x" {`)
	_, err := Load(dir)
	assert.ErrorContains(t, err, "failed to parse hook file")
}

func TestLoad_UnknownBlock(t *testing.T) {
	dir := writeHookFile(t, `pre_build "x" { run = "true" }`)
	_, err := Load(dir)
	assert.ErrorContains(t, err, "failed to decode hook file")
}

func TestHooks_AllKinds(t *testing.T) {
	dir := writeHookFile(t, `
post_install "first" { run = "echo install-1" }
post_install "second" { run = "echo install-2" }
pre_publish "lint" { run = "echo lint" }
post_uninstall "clean" { run = "echo clean" }
post_typescript_compile "copy" { run = "echo copy" }

typescript_compiler {
  config_files = ["tsconfig.build.json", "tsconfig.test.json"]
}
`)
	f, err := Load(dir)
	require.NoError(t, err)

	install := f.Hooks(PostInstall, &scriptLog{})
	require.Len(t, install, 2)
	assert.Equal(t, "post_install.first", install[0].Name)
	assert.Equal(t, "post_install.second", install[1].Name)

	assert.Len(t, f.Hooks(PrePublish, &scriptLog{}), 1)
	assert.Len(t, f.Hooks(PostUninstall, &scriptLog{}), 1)
	assert.Len(t, f.Hooks(PostCompile, &scriptLog{}), 1)
	assert.Equal(t, []string{"tsconfig.build.json", "tsconfig.test.json"}, f.CompilerConfigs())
}

func TestHooks_Conditions(t *testing.T) {
	dir := writeHookFile(t, `
post_install "released" {
  condition = package.version != "0.0.0"
  run       = "echo released"
}
post_install "uses-x" {
  condition = contains(package.dependencies, "x")
  run       = "echo uses-x"
}
post_install "has-assets" {
  condition = file_exists("assets")
  run       = "echo assets"
}
post_install "always" { run = "echo always" }
`)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "assets"), 0o755))

	f, err := Load(dir)
	require.NoError(t, err)

	testCases := []struct {
		name string
		desc *manifest.Descriptor
		want []string
	}{
		{
			name: "unreleased without x",
			desc: &manifest.Descriptor{Name: "p", Version: "0.0.0"},
			want: []string{"echo assets", "echo always"},
		},
		{
			name: "released with x",
			desc: &manifest.Descriptor{Name: "p", Version: "1.0.0", Dependencies: map[string]string{"x": "^1.0.0"}},
			want: []string{"echo released", "echo uses-x", "echo assets", "echo always"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			log := &scriptLog{}
			err := action.Execute(context.Background(), f.Hooks(PostInstall, log), tc.desc, dir)
			require.NoError(t, err)
			assert.Equal(t, tc.want, log.scripts)
		})
	}
}

func TestHooks_NonBoolCondition(t *testing.T) {
	dir := writeHookFile(t, `
post_install "bad" {
  condition = package.name
  run       = "echo never"
}
`)
	f, err := Load(dir)
	require.NoError(t, err)

	log := &scriptLog{}
	err = action.Execute(context.Background(), f.Hooks(PostInstall, log), &manifest.Descriptor{Name: "p"}, dir)
	assert.ErrorContains(t, err, "condition must be a bool")
	assert.Empty(t, log.scripts)
}

func TestLazy(t *testing.T) {
	dir := writeHookFile(t, `pre_publish "a" { run = "echo a" }`)
	lazy := NewLazy(dir)

	first, err := lazy.Get()
	require.NoError(t, err)

	// Later edits are not picked up within one run.
	require.NoError(t, os.Remove(filepath.Join(dir, FileName)))
	second, err := lazy.Get()
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Len(t, second.Hooks(PrePublish, &scriptLog{}), 1)

	var nilLazy *Lazy
	f, err := nilLazy.Get()
	require.NoError(t, err)
	assert.Empty(t, f.Hooks(PrePublish, &scriptLog{}))
}

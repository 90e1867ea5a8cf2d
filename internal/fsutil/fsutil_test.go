package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestGlob(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "tsconfig.json"))
	touch(t, filepath.Join(dir, "tsconfig.build.json"))
	touch(t, filepath.Join(dir, "src", "a.ts"))
	touch(t, filepath.Join(dir, "src", "deep", "b.ts"))
	touch(t, filepath.Join(dir, "index.ts"))

	got, err := Glob(dir, "tsconfig*.json")
	require.NoError(t, err)
	assert.Equal(t, []string{"tsconfig.build.json", "tsconfig.json"}, got)

	got, err = Glob(dir, "**/*.ts")
	require.NoError(t, err)
	assert.Equal(t, []string{"index.ts", "src/a.ts", "src/deep/b.ts"}, got)

	got, err = Glob(dir, "nothing/*")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGlob_EmptyPatternPanics(t *testing.T) {
	assert.Panics(t, func() { _, _ = Glob(t.TempDir(), "") })
}

func TestLinkPackage(t *testing.T) {
	root := t.TempDir()
	app := filepath.Join(root, "app")
	lib := filepath.Join(root, "lib")
	scoped := filepath.Join(root, "scoped")
	require.NoError(t, os.MkdirAll(app, 0o755))
	touch(t, filepath.Join(lib, "package.json"))
	touch(t, filepath.Join(scoped, "package.json"))

	linked, err := LinkPackage(app, "lib", lib)
	require.NoError(t, err)
	assert.True(t, linked)

	target, err := os.Readlink(filepath.Join(app, ModulesDir, "lib"))
	require.NoError(t, err)
	assert.Equal(t, lib, target)
	assert.FileExists(t, filepath.Join(app, ModulesDir, "lib", "package.json"))

	linked, err = LinkPackage(app, "lib", scoped)
	require.NoError(t, err)
	assert.False(t, linked, "an existing entry is kept")

	linked, err = LinkPackage(app, "@acme/scoped", scoped)
	require.NoError(t, err)
	assert.True(t, linked)
	assert.True(t, IsDir(filepath.Join(app, ModulesDir, "@acme", "scoped")))
}

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "package.json")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	require.NoError(t, WriteFileAtomic(path, []byte("new"), 0o644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestSubDirs(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b", "x"))
	touch(t, filepath.Join(dir, "a", "x"))
	touch(t, filepath.Join(dir, "file.ts"))

	got, err := SubDirs(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)

	assert.True(t, Exists(filepath.Join(dir, "file.ts")))
	assert.False(t, Exists(filepath.Join(dir, "missing")))
	assert.False(t, IsDir(filepath.Join(dir, "file.ts")))
}

package fsutil

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/google/renameio/v2"
)

// ModulesDir is the folder a package's dependencies are installed into.
const ModulesDir = "node_modules"

// LinkPackage makes the package at target visible to the package in
// packageDir as node_modules/<name>. An existing entry is left untouched
// and reported as not linked. Scoped names ("@scope/pkg") get their scope
// directory created.
func LinkPackage(packageDir, name, target string) (bool, error) {
	link := filepath.Join(packageDir, ModulesDir, filepath.FromSlash(name))
	if Exists(link) {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(link), 0o755); err != nil {
		return false, errors.Wrapf(err, "creating %s", filepath.Dir(link))
	}
	if err := os.Symlink(target, link); err != nil {
		return false, errors.Wrapf(err, "linking %s to %s", link, target)
	}
	return true, nil
}

// WriteFileAtomic replaces path with data so readers never observe a
// partially written file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	if err := renameio.WriteFile(path, data, perm); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	return nil
}

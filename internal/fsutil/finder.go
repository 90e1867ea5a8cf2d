// Package fsutil provides file system utility functions.
package fsutil

import (
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cockroachdb/errors"
)

// Glob returns the paths under dir matching pattern, relative to dir and
// sorted. Patterns use doublestar syntax, so "**" crosses directories.
func Glob(dir, pattern string) ([]string, error) {
	if pattern == "" {
		panic("pattern must not be empty")
	}

	matches, err := doublestar.Glob(os.DirFS(dir), pattern)
	if err != nil {
		return nil, errors.Wrapf(err, "matching %q in %s", pattern, dir)
	}
	sort.Strings(matches)
	return matches, nil
}

// Exists reports whether path exists. A dangling symlink counts as present.
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// IsDir reports whether path is a directory, following symlinks.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// SubDirs returns the names of the immediate subdirectories of dir, sorted.
func SubDirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", dir)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

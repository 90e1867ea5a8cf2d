package workspace

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cockroachdb/errors"
	"github.com/specialistvlad/workgrid/internal/ctxlog"
	"github.com/specialistvlad/workgrid/internal/manifest"
	"github.com/specialistvlad/workgrid/internal/pipeline"
)

// DiscoverOptions extends the default discovery patterns.
type DiscoverOptions struct {
	// AdditionalPaths are extra directories, relative to the workspace root
	// or absolute, whose immediate subdirectories hold member packages.
	AdditionalPaths []string `mapstructure:"additional_paths"`
}

// Discover finds the workspace manifest and every sibling package manifest
// one level below root (and below each additional path), reads them, and
// returns them as buffered items sorted by path.
func Discover(ctx context.Context, root string, opts DiscoverOptions) ([]*pipeline.Item, error) {
	logger := ctxlog.FromContext(ctx)

	patterns := []string{
		filepath.Join(root, manifest.FileName),
		filepath.Join(root, "*", manifest.FileName),
	}
	for _, extra := range opts.AdditionalPaths {
		if !filepath.IsAbs(extra) {
			extra = filepath.Join(root, extra)
		}
		patterns = append(patterns, filepath.Join(extra, "*", manifest.FileName))
	}

	seen := make(map[string]struct{})
	var paths []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid discovery pattern %q", pattern)
		}
		for _, match := range matches {
			if isInsideNodeModules(root, match) {
				continue
			}
			if _, ok := seen[match]; ok {
				continue
			}
			seen[match] = struct{}{}
			paths = append(paths, match)
		}
	}
	slices.Sort(paths)
	logger.Debug("Discovered package manifests.", "count", len(paths), "root", root)

	items := make([]*pipeline.Item, 0, len(paths))
	for _, path := range paths {
		contents, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", path)
		}
		items = append(items, pipeline.NewItem(path, contents))
	}
	return items, nil
}

func isInsideNodeModules(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if part == "node_modules" {
			return true
		}
	}
	return false
}

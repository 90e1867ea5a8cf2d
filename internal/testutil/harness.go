package testutil

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/specialistvlad/workgrid/internal/ctxlog"
	"github.com/stretchr/testify/require"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// Context returns a background context carrying a debug logger that writes
// into the returned buffer. Set WORKGRID_TEST_LOGS=true to echo the log at
// the end of the test.
func Context(t *testing.T) (context.Context, *SafeBuffer) {
	t.Helper()
	buf := &SafeBuffer{}
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	t.Cleanup(func() {
		if os.Getenv("WORKGRID_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), buf.String())
		}
	})
	return ctxlog.WithLogger(context.Background(), logger), buf
}

// WriteWorkspace creates a temporary workspace from relative file paths and
// their contents and returns its root.
func WriteWorkspace(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

// Manifest renders a minimal package.json. deps maps a dependency kind
// ("dependencies", "devDependencies", ...) to name/range pairs.
func Manifest(name, version string, deps map[string]map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "{\n  \"name\": %q,\n  \"version\": %q", name, version)

	kinds := make([]string, 0, len(deps))
	for kind := range deps {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	for _, kind := range kinds {
		names := make([]string, 0, len(deps[kind]))
		for dep := range deps[kind] {
			names = append(names, dep)
		}
		sort.Strings(names)

		entries := make([]string, 0, len(names))
		for _, dep := range names {
			entries = append(entries, fmt.Sprintf("%q: %q", dep, deps[kind][dep]))
		}
		fmt.Fprintf(&b, ",\n  %q: {%s}", kind, strings.Join(entries, ", "))
	}
	b.WriteString("\n}\n")
	return b.String()
}

package app

import (
	"context"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/gofrs/flock"
	"github.com/specialistvlad/workgrid/internal/ctxlog"
)

// LockFileName is created in the workspace root while a run holds the lock.
const LockFileName = ".workgrid.lock"

// ErrWorkspaceLocked is returned when another run holds the workspace lock.
var ErrWorkspaceLocked = errors.New("workspace is locked by another workgrid run")

// lockWorkspace takes an exclusive lock on root and returns its release
// function.
func lockWorkspace(ctx context.Context, root string) (func(), error) {
	logger := ctxlog.FromContext(ctx)
	path := filepath.Join(root, LockFileName)

	lock := flock.New(path)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, errors.Wrapf(err, "locking %s", path)
	}
	if !locked {
		return nil, errors.Wrapf(ErrWorkspaceLocked, "%s", path)
	}
	logger.Debug("Workspace locked.", "path", path)

	return func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("Failed to unlock workspace.", "path", path, "error", err)
		}
	}, nil
}

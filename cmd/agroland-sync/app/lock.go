package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrAlreadyRunning is returned when another process holds the instance lock
var ErrAlreadyRunning = errors.New("another agroland-sync instance is already running")

// acquireLock takes the instance lock at path without blocking. The
// returned function releases it.
func acquireLock(path string) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	lock := flock.New(path)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w (lock file %s)", ErrAlreadyRunning, path)
	}

	slog.Debug("Acquired instance lock", "path", path)
	return func() {
		if err := lock.Unlock(); err != nil {
			slog.Warn("Failed to release instance lock", "path", path, "error", err)
		}
	}, nil
}

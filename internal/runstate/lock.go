package runstate

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// AcquireLock takes an exclusive flock on the run's lock file so only one
// invocation processes a given source at a time. The returned release
// function is safe to call once.
func AcquireLock(dir, runKey string) (func(), error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure lock directory: %w", err)
	}
	lock := flock.New(filepath.Join(dir, runKey+".lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("run %s is already in progress", runKey)
	}
	return func() { _ = lock.Unlock() }, nil
}

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const lockTimeout = 10 * time.Second

// acquireIndexLock takes the advisory lock on <dir>/.lock, retrying until timeout.
// The returned func releases it.
func acquireIndexLock(dir string, timeout time.Duration) (func(), error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return func() {}, fmt.Errorf("cannot create index dir %s: %w", dir, err)
	}
	lockPath := filepath.Join(dir, ".lock")
	l := flock.New(lockPath)
	deadline := time.Now().Add(timeout)
	for {
		locked, err := l.TryLock()
		if err != nil {
			return func() {}, fmt.Errorf("cannot acquire index lock: %w", err)
		}
		if locked {
			return func() { _ = l.Unlock() }, nil
		}
		if time.Now().After(deadline) {
			return func() {}, fmt.Errorf("index is in use by another taskcap process (lock: %s)", lockPath)
		}
		time.Sleep(200 * time.Millisecond)
	}
}

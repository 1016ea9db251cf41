/*
Package lock serialises briefing runs and picks ingestion with a lock file.

On unix the lock is an advisory flock that the kernel drops when the process
exits. Elsewhere it is an exclusively created pid file, which a crashed run
leaves behind and which must then be removed by hand.
*/
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrHeld is returned by TryAcquire when another process holds the lock.
var ErrHeld = errors.New("lock is held by another process")

type Lock struct {
	f    *os.File
	path string
}

func ensureDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}
	return nil
}

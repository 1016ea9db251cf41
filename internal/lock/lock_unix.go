//go:build unix

package lock

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"golang.org/x/sys/unix"
)

// TryAcquire takes the lock without waiting.
func TryAcquire(path string) (*Lock, error) {
	return acquire(path, unix.LOCK_EX|unix.LOCK_NB)
}

// Acquire blocks until the lock is available.
func Acquire(path string) (*Lock, error) {
	return acquire(path, unix.LOCK_EX)
}

func acquire(path string, how int) (*Lock, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file %s: %w", path, err)
	}

	if err := unix.Flock(int(f.Fd()), how); err != nil {
		f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, fmt.Errorf("%s: %w", path, ErrHeld)
		}
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}

	// The pid is informational only.
	if err := f.Truncate(0); err == nil {
		_, _ = f.WriteAt([]byte(strconv.Itoa(os.Getpid())+"\n"), 0)
	}
	return &Lock{f: f, path: path}, nil
}

// Release unlocks and closes the lock file. The file itself stays on disk.
func (l *Lock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	defer func() { l.f = nil }()
	if err := unix.Flock(int(l.f.Fd()), unix.LOCK_UN); err != nil {
		l.f.Close()
		return fmt.Errorf("failed to unlock %s: %w", l.path, err)
	}
	return l.f.Close()
}

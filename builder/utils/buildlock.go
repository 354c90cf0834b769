package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// BuildLock serializes builds against one output tree. The lock file lives
// inside the output directory itself, so builds of different sites never
// contend with each other.
type BuildLock struct {
	f    *os.File
	path string
}

// LockBuildDir takes a non-blocking exclusive lock under dir. A second
// faro process fails immediately instead of queueing behind the first;
// two builds interleaving writes would corrupt the output and the cache.
func LockBuildDir(dir string) (*BuildLock, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(dir, ".faro-build.lock")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}
	if err := lockExclusive(f); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("another build is in progress (lock file: %s)", path)
	}

	// Breadcrumb for whoever inspects a stale lock by hand.
	fmt.Fprintf(f, "%d %s\n", os.Getpid(), time.Now().Format(time.RFC3339))

	return &BuildLock{f: f, path: path}, nil
}

// Release unlocks and removes the lock file. Safe to call twice.
func (l *BuildLock) Release() error {
	if l.f == nil {
		return nil
	}
	_ = unlockFile(l.f)
	err := l.f.Close()
	l.f = nil
	_ = os.Remove(l.path)
	return err
}

package magus

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// acquireRunLock takes a non-blocking flock next to the working copy.
// Two concurrent runs against the same directory would race on the
// checkout and on make's intermediate files, so the second run is
// refused outright.
func acquireRunLock(workDir string) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(workDir), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", filepath.Dir(workDir), err)
	}
	lockPath := workDir + ".lock"
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, fmt.Errorf("another magus run is already using %s", workDir)
	}
	release := func() {
		unix.Flock(int(f.Fd()), unix.LOCK_UN)
		f.Close()
		os.Remove(lockPath)
	}
	return release, nil
}

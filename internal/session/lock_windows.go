//go:build windows

package session

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/windows"

	"twikitmcp/internal/constants"
)

func lockFile(path string) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), constants.SessionDirMode); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, constants.SessionFileMode)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}

	handle := windows.Handle(f.Fd())
	ol := new(windows.Overlapped)
	if err := windows.LockFileEx(handle, windows.LOCKFILE_EXCLUSIVE_LOCK, 0, 1, 0, ol); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}

	return func() {
		windows.UnlockFileEx(handle, 0, 1, 0, ol)
		f.Close()
	}, nil
}

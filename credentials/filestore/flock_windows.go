//go:build windows

package filestore

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// the lock covers the whole lock file; it only ever guards the credential file next to it
const lockRangeLow, lockRangeHigh = ^uint32(0), ^uint32(0)

func flockLock(fd uintptr) error {
	var ol windows.Overlapped
	if err := windows.LockFileEx(windows.Handle(fd), windows.LOCKFILE_EXCLUSIVE_LOCK, 0, lockRangeLow, lockRangeHigh, &ol); err != nil {
		return fmt.Errorf("[filestore flockLock] LockFileEx: %w", err)
	}
	return nil
}

func flockUnlock(fd uintptr) error {
	var ol windows.Overlapped
	if err := windows.UnlockFileEx(windows.Handle(fd), 0, lockRangeLow, lockRangeHigh, &ol); err != nil {
		return fmt.Errorf("[filestore flockUnlock] UnlockFileEx: %w", err)
	}
	return nil
}

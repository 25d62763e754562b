//go:build !windows

package filestore

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// flockLock takes an exclusive advisory lock on the "<path>.lock" file,
// blocking until other processes sharing the credential file release it.
func flockLock(fd uintptr) error {
	if err := unix.Flock(int(fd), unix.LOCK_EX); err != nil {
		return fmt.Errorf("[filestore flockLock] flock: %w", err)
	}
	return nil
}

func flockUnlock(fd uintptr) error {
	if err := unix.Flock(int(fd), unix.LOCK_UN); err != nil {
		return fmt.Errorf("[filestore flockUnlock] flock: %w", err)
	}
	return nil
}

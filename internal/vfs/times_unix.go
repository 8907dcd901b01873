//go:build linux || darwin

package vfs

import (
	"time"

	"golang.org/x/sys/unix"
)

func setLocalTimes(absPath string, atime, mtime time.Time) error {
	times := []unix.Timespec{
		unix.NsecToTimespec(atime.UnixNano()),
		unix.NsecToTimespec(mtime.UnixNano()),
	}
	return unix.UtimesNanoAt(unix.AT_FDCWD, absPath, times, unix.AT_SYMLINK_NOFOLLOW)
}

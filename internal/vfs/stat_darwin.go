//go:build darwin

package vfs

import (
	"os"
	"syscall"
	"time"
)

// fillStatTimes extracts access and birth times from syscall.Stat_t.
func fillStatTimes(info os.FileInfo, entry *FileEntry) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return
	}
	entry.Accessed = time.Unix(stat.Atimespec.Sec, stat.Atimespec.Nsec)
	entry.Created = time.Unix(stat.Birthtimespec.Sec, stat.Birthtimespec.Nsec)
}

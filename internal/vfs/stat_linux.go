//go:build linux

package vfs

import (
	"os"
	"syscall"
	"time"
)

// fillStatTimes extracts access and creation times from syscall.Stat_t.
// stat(2) carries no birth time on Linux, so Created falls back to the
// status-change time.
func fillStatTimes(info os.FileInfo, entry *FileEntry) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return
	}
	entry.Accessed = time.Unix(stat.Atim.Sec, stat.Atim.Nsec)
	entry.Created = time.Unix(stat.Ctim.Sec, stat.Ctim.Nsec)
}

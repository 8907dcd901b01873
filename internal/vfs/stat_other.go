//go:build !linux && !darwin

package vfs

import (
	"os"
	"time"
)

func fillStatTimes(_ os.FileInfo, _ *FileEntry) {}

func setLocalTimes(absPath string, atime, mtime time.Time) error {
	return os.Chtimes(absPath, atime, mtime)
}

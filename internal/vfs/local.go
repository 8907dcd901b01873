package vfs

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// Compile-time interface check.
var _ FileSystem = (*LocalFS)(nil)

// LocalFS exposes a directory of the host machine as a FileSystem.
type LocalFS struct {
	root string
}

// NewLocal creates a local filesystem rooted at root.
func NewLocal(root string) *LocalFS {
	return &LocalFS{root: root}
}

func (*LocalFS) Kind() Kind     { return Local }
func (l *LocalFS) Root() string { return l.root }

// AbsPath returns the host path for a root-relative path.
func (l *LocalFS) AbsPath(p string) string {
	return filepath.Join(l.root, filepath.FromSlash(Clean(p)))
}

func (l *LocalFS) List(dir string) ([]FileEntry, error) {
	dir = Clean(dir)
	absDir := l.AbsPath(dir)
	children, err := os.ReadDir(absDir)
	if err != nil {
		return nil, fmt.Errorf("readdir %s: %w", dir, err)
	}

	entries := make([]FileEntry, 0, len(children))
	for _, d := range children {
		info, err := os.Lstat(filepath.Join(absDir, d.Name()))
		if err != nil {
			// Vanished between readdir and lstat.
			continue
		}
		entries = append(entries, localEntry(info, dir))
	}
	return entries, nil
}

func (l *LocalFS) Stat(p string) (FileEntry, error) {
	p = Clean(p)
	info, err := os.Lstat(l.AbsPath(p))
	if err != nil {
		return FileEntry{}, err
	}
	dir, _ := Split(p)
	entry := localEntry(info, dir)
	if p == "" {
		entry.Name = ""
	}
	return entry, nil
}

func (l *LocalFS) Mkdir(p string) error {
	return os.Mkdir(l.AbsPath(p), 0o755)
}

func (l *LocalFS) DeleteFile(p string) error {
	abs := l.AbsPath(p)
	info, err := os.Lstat(abs)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return &fs.PathError{Op: "delete", Path: p, Err: errors.New("is a directory")}
	}
	return os.Remove(abs)
}

func (l *LocalFS) DeleteDir(p string) error {
	abs := l.AbsPath(p)
	info, err := os.Lstat(abs)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return &fs.PathError{Op: "rmdir", Path: p, Err: errors.New("not a directory")}
	}
	return os.Remove(abs)
}

func (l *LocalFS) Rename(oldPath, newPath string) error {
	newAbs := l.AbsPath(newPath)
	if _, err := os.Lstat(newAbs); err == nil {
		return &fs.PathError{Op: "rename", Path: newPath, Err: ErrExist}
	}
	return os.Rename(l.AbsPath(oldPath), newAbs)
}

func (l *LocalFS) OpenRead(p string) (io.ReadCloser, error) {
	return os.Open(l.AbsPath(p))
}

//nolint:ireturn // implements FileSystem interface
func (l *LocalFS) OpenWrite(p string, shared bool) (io.WriteCloser, error) {
	abs := l.AbsPath(p)

	var lock *flock.Flock
	if !shared {
		lock = flock.New(abs, flock.SetPermissions(0o644))
		locked, err := lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("lock %s: %w", p, err)
		}
		if !locked {
			return nil, fmt.Errorf("lock %s: file is in use", p)
		}
	}

	f, err := os.OpenFile(abs, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		if lock != nil {
			_ = lock.Unlock()
		}
		return nil, err
	}
	return &localWriter{File: f, lock: lock}, nil
}

func (l *LocalFS) SetAttributes(p string, attrs Attributes) error {
	abs := l.AbsPath(p)
	info, err := os.Lstat(abs)
	if err != nil {
		return err
	}

	if info.Mode()&os.ModeSymlink == 0 {
		perm := info.Mode().Perm()
		if attrs.ReadOnly {
			perm &^= 0o222
		} else {
			perm |= 0o200
		}
		if perm != info.Mode().Perm() {
			if err := os.Chmod(abs, perm); err != nil {
				return fmt.Errorf("chmod %s: %w", p, err)
			}
		}
	}

	if attrs.Accessed.IsZero() && attrs.Modified.IsZero() {
		return nil
	}
	current := localEntry(info, "")
	atime, mtime := attrs.Accessed, attrs.Modified
	if atime.IsZero() {
		atime = current.Accessed
	}
	if mtime.IsZero() {
		mtime = current.Modified
	}
	if err := setLocalTimes(abs, atime, mtime); err != nil {
		return fmt.Errorf("set times %s: %w", p, err)
	}
	return nil
}

// localWriter releases the advisory lock after the file is closed.
type localWriter struct {
	*os.File
	lock *flock.Flock
}

func (w *localWriter) Close() error {
	err := w.File.Close()
	if w.lock != nil {
		if unlockErr := w.lock.Unlock(); unlockErr != nil && err == nil {
			err = unlockErr
		}
	}
	return err
}

func localEntry(info os.FileInfo, dir string) FileEntry {
	entry := FileEntry{
		Name:     info.Name(),
		Dir:      dir,
		Size:     info.Size(),
		Modified: info.ModTime(),
		Accessed: info.ModTime(),
		Created:  info.ModTime(),
		Attr:     modeAttr(info.Mode(), info.Name()),
	}
	if entry.IsDir() {
		entry.Size = 0
	}
	fillStatTimes(info, &entry)
	return entry
}

func modeAttr(mode os.FileMode, name string) Attr {
	var a Attr
	if mode.IsDir() {
		a |= AttrDirectory
	}
	if mode&os.ModeSymlink != 0 {
		a |= AttrSymlink
	}
	if mode.Perm()&0o200 == 0 {
		a |= AttrReadOnly
	}
	if HiddenName(name) {
		a |= AttrHidden
	}
	return a
}

package vfs

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"path"
	"time"

	"github.com/pkg/sftp"
)

// Compile-time interface check.
var _ FileSystem = (*SFTPFS)(nil)

// SFTPFS is the device filesystem, reached through a borrowed SFTP client.
// It never closes the client; the session that created it does.
type SFTPFS struct {
	client *sftp.Client
	root   string
}

// NewSFTP wraps client as a remote FileSystem rooted at root.
func NewSFTP(client *sftp.Client, root string) *SFTPFS {
	if root == "" {
		root = "/"
	}
	return &SFTPFS{client: client, root: root}
}

func (*SFTPFS) Kind() Kind     { return Remote }
func (s *SFTPFS) Root() string { return s.root }

func (s *SFTPFS) abs(p string) string {
	return path.Join(s.root, Clean(p))
}

func (s *SFTPFS) List(dir string) ([]FileEntry, error) {
	dir = Clean(dir)
	infos, err := s.client.ReadDir(s.abs(dir))
	if err != nil {
		return nil, remoteErr("readdir", dir, err)
	}
	entries := make([]FileEntry, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, sftpEntry(info, dir))
	}
	return entries, nil
}

func (s *SFTPFS) Stat(p string) (FileEntry, error) {
	p = Clean(p)
	info, err := s.client.Lstat(s.abs(p))
	if err != nil {
		return FileEntry{}, remoteErr("stat", p, err)
	}
	dir, _ := Split(p)
	entry := sftpEntry(info, dir)
	if p == "" {
		entry.Name = ""
	}
	return entry, nil
}

func (s *SFTPFS) Mkdir(p string) error {
	return remoteErr("mkdir", p, s.client.Mkdir(s.abs(p)))
}

func (s *SFTPFS) DeleteFile(p string) error {
	return remoteErr("delete", p, s.client.Remove(s.abs(p)))
}

func (s *SFTPFS) DeleteDir(p string) error {
	return remoteErr("rmdir", p, s.client.RemoveDirectory(s.abs(p)))
}

// Rename refuses to replace an existing target. Servers differ on whether
// SSH_FXP_RENAME overwrites, so the check is made up front.
func (s *SFTPFS) Rename(oldPath, newPath string) error {
	newAbs := s.abs(newPath)
	if _, err := s.client.Lstat(newAbs); err == nil {
		return &fs.PathError{Op: "rename", Path: newPath, Err: ErrExist}
	} else if !errors.Is(err, os.ErrNotExist) {
		return remoteErr("rename", newPath, err)
	}
	return remoteErr("rename", oldPath, s.client.Rename(s.abs(oldPath), newAbs))
}

func (s *SFTPFS) OpenRead(p string) (io.ReadCloser, error) {
	f, err := s.client.Open(s.abs(p))
	if err != nil {
		return nil, remoteErr("open", p, err)
	}
	return f, nil
}

// OpenWrite ignores shared: SFTP v3 has no locking.
func (s *SFTPFS) OpenWrite(p string, _ bool) (io.WriteCloser, error) {
	f, err := s.client.OpenFile(s.abs(p), os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		return nil, remoteErr("create", p, err)
	}
	return f, nil
}

func (s *SFTPFS) SetAttributes(p string, attrs Attributes) error {
	absPath := s.abs(p)
	info, err := s.client.Lstat(absPath)
	if err != nil {
		return remoteErr("stat", p, err)
	}

	perm := info.Mode().Perm()
	if attrs.ReadOnly {
		perm &^= 0o222
	} else {
		perm |= 0o200
	}
	if perm != info.Mode().Perm() {
		if err := s.client.Chmod(absPath, perm); err != nil {
			return remoteErr("chmod", p, err)
		}
	}

	if attrs.Accessed.IsZero() && attrs.Modified.IsZero() {
		return nil
	}
	current := sftpEntry(info, "")
	atime, mtime := attrs.Accessed, attrs.Modified
	if atime.IsZero() {
		atime = current.Accessed
	}
	if mtime.IsZero() {
		mtime = current.Modified
	}
	return remoteErr("chtimes", p, s.client.Chtimes(absPath, atime, mtime))
}

// IsDisconnected reports whether err means the device session is gone.
func IsDisconnected(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrDisconnected) ||
		errors.Is(err, sftp.ErrSSHFxConnectionLost) ||
		errors.Is(err, sftp.ErrSSHFxNoConnection) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, io.ErrClosedPipe)
}

// remoteErr wraps err with op and path and tags connection loss as
// ErrDisconnected so callers can tell it apart from per-object failures.
func remoteErr(op, p string, err error) error {
	if err == nil {
		return nil
	}
	if IsDisconnected(err) {
		return fmt.Errorf("%s %s: %w: %w", op, p, ErrDisconnected, err)
	}
	if errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrExist) {
		return &fs.PathError{Op: op, Path: p, Err: err}
	}
	return fmt.Errorf("%s %s: %w", op, p, err)
}

// sftpEntry converts os.FileInfo from SFTP to a FileEntry. SFTP v3 has no
// creation time, so Created mirrors Modified.
func sftpEntry(info os.FileInfo, dir string) FileEntry {
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
	if st, ok := info.Sys().(*sftp.FileStat); ok {
		entry.Accessed = time.Unix(int64(st.Atime), 0)
	}
	return entry
}

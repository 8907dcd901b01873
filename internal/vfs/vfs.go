package vfs

import (
	"errors"
	"io"
	"io/fs"
	"time"
)

// Kind tells which side of a panel a filesystem lives on.
type Kind int

const (
	Local Kind = iota + 1
	Remote
)

func (k Kind) String() string {
	switch k {
	case Local:
		return "local"
	case Remote:
		return "remote"
	default:
		return "unknown"
	}
}

// Attr is the attribute bitmask carried by a FileEntry.
type Attr uint32

const (
	AttrDirectory Attr = 1 << iota
	AttrReadOnly
	AttrHidden
	AttrSymlink
)

// Has reports whether all bits in mask are set.
func (a Attr) Has(mask Attr) bool { return a&mask == mask }

var (
	ErrNotExist = fs.ErrNotExist
	ErrExist    = fs.ErrExist

	// ErrDisconnected is returned by remote operations once the device
	// session is gone.
	ErrDisconnected = errors.New("device disconnected")
)

// FileEntry is an immutable snapshot of one filesystem object.
type FileEntry struct {
	Created  time.Time
	Accessed time.Time
	Modified time.Time
	Name     string
	// Dir is the slash-separated directory that holds the entry.
	Dir  string
	Size int64
	// Descendants is only filled in by the scanner, for directories.
	Descendants int64
	Attr        Attr
}

// IsDir reports whether the entry is a directory.
func (e FileEntry) IsDir() bool { return e.Attr.Has(AttrDirectory) }

// Path returns the full slash-separated path of the entry.
func (e FileEntry) Path() string { return Join(e.Dir, e.Name) }

// Attributes is the settable subset of entry metadata. Zero times are left
// untouched.
type Attributes struct {
	Accessed time.Time
	Modified time.Time
	ReadOnly bool
}

// FileSystem is one endpoint of a transfer. Paths are slash-separated and
// relative to Root().
type FileSystem interface {
	Kind() Kind
	Root() string

	// List returns the immediate children of dir.
	List(dir string) ([]FileEntry, error)
	Stat(path string) (FileEntry, error)

	Mkdir(path string) error
	DeleteFile(path string) error
	DeleteDir(path string) error

	// Rename moves oldPath to newPath. It fails with ErrExist when newPath
	// already exists.
	Rename(oldPath, newPath string) error

	OpenRead(path string) (io.ReadCloser, error)
	// OpenWrite creates or truncates path. When shared is false the
	// implementation may hold an exclusive lock until Close.
	OpenWrite(path string, shared bool) (io.WriteCloser, error)

	SetAttributes(path string, attrs Attributes) error
}

// SameRemote reports whether a and b are the same remote filesystem, which
// makes server-side renames between them possible.
func SameRemote(a, b FileSystem) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Kind() == Remote && b.Kind() == Remote && a == b
}

// MkdirAll creates path and any missing parents.
func MkdirAll(fsys FileSystem, path string) error {
	path = Clean(path)
	if path == "" {
		return nil
	}
	entry, err := fsys.Stat(path)
	if err == nil {
		if entry.IsDir() {
			return nil
		}
		return &fs.PathError{Op: "mkdir", Path: path, Err: ErrExist}
	}
	if !errors.Is(err, ErrNotExist) {
		return err
	}
	parent, _ := Split(path)
	if err := MkdirAll(fsys, parent); err != nil {
		return err
	}
	if err := fsys.Mkdir(path); err != nil && !errors.Is(err, ErrExist) {
		return err
	}
	return nil
}

package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bamsammich/devfs/internal/vfs"
)

// List returns the children of dir, directories first, each group ordered
// case-insensitively by name.
func List(fsys vfs.FileSystem, dir string) ([]vfs.FileEntry, error) {
	entries, err := fsys.List(dir)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.IsDir() != b.IsDir() {
			return a.IsDir()
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})
	return entries, nil
}

// MakeDir creates path and any missing parents.
func MakeDir(fsys vfs.FileSystem, path string) error {
	path = vfs.Clean(path)
	if path == "" {
		return fmt.Errorf("%w: cannot create the root", ErrInvalidName)
	}
	if err := vfs.MkdirAll(fsys, path); err != nil {
		return fmt.Errorf("make directory %s: %w", path, err)
	}
	return nil
}

// SetAttributes changes the read-only flag and times of path.
func SetAttributes(fsys vfs.FileSystem, path string, attrs vfs.Attributes) error {
	if err := fsys.SetAttributes(vfs.Clean(path), attrs); err != nil {
		return fmt.Errorf("set attributes %s: %w", path, err)
	}
	return nil
}

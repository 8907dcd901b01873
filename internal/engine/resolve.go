package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bamsammich/devfs/internal/vfs"
)

// CaseCorrect returns p with every existing segment replaced by its real
// spelling on fsys. Lookup stops at the first segment that does not exist;
// that segment and the rest are returned unchanged. Only remote filesystems
// match case-insensitively; a local name must match exactly.
func CaseCorrect(fsys vfs.FileSystem, p string) string {
	fold := fsys.Kind() == vfs.Remote
	segments := vfs.Segments(p)
	dir := ""
	for i, seg := range segments {
		entries, err := fsys.List(dir)
		if err != nil {
			return vfs.Join(dir, strings.Join(segments[i:], "/"))
		}
		actual, ok := matchName(entries, seg, fold)
		if !ok {
			return vfs.Join(dir, strings.Join(segments[i:], "/"))
		}
		dir = vfs.Join(dir, actual)
	}
	return dir
}

// matchName prefers an exact match over a case-insensitive one, which is
// only tried when fold is set.
func matchName(entries []vfs.FileEntry, name string, fold bool) (string, bool) {
	folded := ""
	for _, e := range entries {
		if e.Name == name {
			return e.Name, true
		}
		if fold && folded == "" && strings.EqualFold(e.Name, name) {
			folded = e.Name
		}
	}
	return folded, folded != ""
}

// ResolveDestination decides the destination directory and optional new name
// for a selection of count objects. An existing directory is used as is.
// Otherwise a single object is renamed to the last segment of dst, unless dst
// ends with a separator; several objects go into dst, which is created later.
func ResolveDestination(fsys vfs.FileSystem, count int, dst string) (dir, rename string, err error) {
	trailing := strings.HasSuffix(dst, "/") || strings.HasSuffix(dst, `\`)
	dst = vfs.Clean(dst)
	if dst == "" {
		return "", "", nil
	}

	entry, err := fsys.Stat(dst)
	switch {
	case err == nil && entry.IsDir():
		return dst, "", nil
	case err == nil:
		if count > 1 || trailing {
			return "", "", fmt.Errorf("%w: %s is not a directory", ErrInvalidDestination, dst)
		}
	case !errors.Is(err, vfs.ErrNotExist):
		return "", "", fmt.Errorf("destination %s: %w", dst, err)
	}

	if count == 1 && !trailing {
		dir, name := vfs.Split(dst)
		return dir, name, nil
	}
	return dst, "", nil
}

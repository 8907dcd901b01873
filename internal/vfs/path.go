package vfs

import (
	"path"
	"strings"
)

// Separator is the path separator used by every FileSystem.
const Separator = '/'

// Join appends name to dir, inserting a separator only when dir is non-empty
// and does not already end in one.
func Join(dir, name string) string {
	if dir == "" {
		return name
	}
	if name == "" {
		return dir
	}
	if dir[len(dir)-1] == Separator {
		return dir + name
	}
	return dir + string(Separator) + name
}

// IsAbs reports whether p is rooted.
func IsAbs(p string) bool {
	return strings.HasPrefix(p, "/") || strings.HasPrefix(p, `\`)
}

// Clean normalises p to the root-relative form used by FileSystem methods:
// backslashes become slashes, "." and ".." are resolved, and there are no
// leading or trailing separators. The root is "".
func Clean(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	p = path.Clean("/" + p)
	return strings.TrimPrefix(p, "/")
}

// Resolve interprets expr relative to cwd unless it is absolute.
func Resolve(cwd, expr string) string {
	if IsAbs(expr) {
		return Clean(expr)
	}
	return Clean(Join(Clean(cwd), expr))
}

// Split returns the directory and last element of a cleaned path.
func Split(p string) (dir, name string) {
	p = Clean(p)
	i := strings.LastIndexByte(p, Separator)
	if i < 0 {
		return "", p
	}
	return p[:i], p[i+1:]
}

// Segments splits a cleaned path into its elements.
func Segments(p string) []string {
	p = Clean(p)
	if p == "" {
		return nil
	}
	return strings.Split(p, string(Separator))
}

// Ext returns the lower-cased extension of name including the dot.
func Ext(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 {
		return ""
	}
	return strings.ToLower(name[i:])
}

// HiddenName reports whether name follows the dot-file convention.
func HiddenName(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

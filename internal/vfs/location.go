package vfs

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Location is a parsed panel path argument: either a host path or a path on
// a device reached over SSH.
type Location struct {
	Host string
	User string
	Path string
}

// IsRemote returns true if the location refers to a device.
func (l Location) IsRemote() bool {
	return l.Host != ""
}

// String returns a human-readable representation.
func (l Location) String() string {
	if !l.IsRemote() {
		return l.Path
	}
	if l.User != "" {
		return fmt.Sprintf("%s@%s:%s", l.User, l.Host, l.Path)
	}
	return fmt.Sprintf("%s:%s", l.Host, l.Path)
}

// ParseLocation parses a CLI argument into a Location.
//
// Supported formats:
//   - /absolute/path        → local
//   - relative/path         → local
//   - host:path             → device (current user)
//   - user@host:path        → device
//
// A path containing ":" is only treated as remote if the part before the
// colon contains no path separators, so "/foo:bar" and "./host:path" stay
// local. A single-letter host part is a Windows drive, not a device.
func ParseLocation(arg string) Location {
	if filepath.IsAbs(arg) || strings.HasPrefix(arg, "./") || strings.HasPrefix(arg, "../") {
		return Location{Path: arg}
	}

	colonIdx := strings.IndexByte(arg, ':')
	if colonIdx <= 0 {
		return Location{Path: arg}
	}

	hostPart := arg[:colonIdx]
	pathPart := arg[colonIdx+1:]

	if strings.ContainsAny(hostPart, `/\`) || len(hostPart) == 1 {
		return Location{Path: arg}
	}

	var user, host string
	if atIdx := strings.LastIndexByte(hostPart, '@'); atIdx >= 0 {
		user = hostPart[:atIdx]
		host = hostPart[atIdx+1:]
	} else {
		host = hostPart
	}
	if host == "" {
		return Location{Path: arg}
	}

	return Location{Host: host, User: user, Path: pathPart}
}

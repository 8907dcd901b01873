package engine

import (
	"fmt"
	"strings"
)

// Overwrite is the policy applied when a destination file already exists.
type Overwrite int

const (
	OverwriteSkip Overwrite = iota
	OverwriteAlways
	OverwriteAsk
)

func (o Overwrite) String() string {
	switch o {
	case OverwriteSkip:
		return "skip"
	case OverwriteAlways:
		return "overwrite"
	case OverwriteAsk:
		return "ask"
	default:
		return "unknown"
	}
}

// ParseOverwrite parses "skip", "overwrite" or "ask".
func ParseOverwrite(s string) (Overwrite, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "skip":
		return OverwriteSkip, nil
	case "overwrite", "always":
		return OverwriteAlways, nil
	case "ask":
		return OverwriteAsk, nil
	default:
		return 0, fmt.Errorf("invalid overwrite policy %q (want skip, overwrite or ask)", s)
	}
}

// Options controls one transfer request.
type Options struct {
	// Exclude holds glob patterns, relative to the source directory, of
	// objects to leave out. Excluded objects count as skipped.
	Exclude []string
	// FilterFile names a rules file ("- pattern", "+ pattern") consulted
	// after Exclude.
	FilterFile string

	Overwrite Overwrite

	// BufferSize is the copy buffer size in bytes; 0 selects it
	// automatically from observed throughput.
	BufferSize int64
	// BWLimit caps copy throughput in bytes per second; 0 is unlimited.
	BWLimit int64

	// IgnoreErrors continues past per-object failures.
	IgnoreErrors bool
	// Shared opens destination files without an exclusive lock.
	Shared      bool
	UseFilters  bool
	UseTmpFiles bool
	Verify      bool
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Overwrite:  OverwriteAsk,
		UseFilters: true,
	}
}

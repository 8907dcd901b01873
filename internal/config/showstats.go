package config

import (
	"fmt"
	"strings"
)

// ShowStats decides when the summary of a request is shown.
type ShowStats int

const (
	ShowIfError ShowStats = iota
	ShowAlways
	ShowNever
)

func (s ShowStats) String() string {
	switch s {
	case ShowAlways:
		return "always"
	case ShowNever:
		return "never"
	case ShowIfError:
		return "if-error"
	default:
		return "unknown"
	}
}

// ParseShowStats parses "always", "never" or "if-error".
func ParseShowStats(s string) (ShowStats, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "always":
		return ShowAlways, nil
	case "never":
		return ShowNever, nil
	case "if-error", "iferror", "on-error":
		return ShowIfError, nil
	default:
		return 0, fmt.Errorf("invalid show_stats %q (want always, never or if-error)", s)
	}
}

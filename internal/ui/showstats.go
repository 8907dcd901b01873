package ui

import (
	"github.com/bamsammich/devfs/internal/config"
	"github.com/bamsammich/devfs/internal/stats"
)

// ShouldShowStats applies the show_stats mode to a finished request.
func ShouldShowStats(mode config.ShowStats, snap stats.Snapshot) bool {
	switch mode {
	case config.ShowAlways:
		return true
	case config.ShowNever:
		return false
	default:
		return snap.Failed()
	}
}

package ui

import (
	"fmt"

	"github.com/bamsammich/devfs/internal/stats"
)

// completionSummary builds a final summary line from a snapshot.
// Format: done ✓  files 48  dirs 3  size 2.1 GiB  avg 41 MiB/s  time 3m 17s  overwritten 0  skipped 0  errors 0
func completionSummary(snap stats.Snapshot) string {
	avgSpeed := 0.0
	if snap.Elapsed.Seconds() > 0 {
		avgSpeed = float64(snap.BytesCopied) / snap.Elapsed.Seconds()
	}

	icon := "✓"
	if snap.Failed() {
		icon = "✗"
	}

	return fmt.Sprintf("done %s  files %s  dirs %s  size %s  avg %s  time %s  overwritten %s  skipped %s  errors %s",
		icon,
		FormatCount(snap.Files),
		FormatCount(snap.Dirs),
		FormatBytes(snap.BytesCopied),
		FormatRate(avgSpeed),
		FormatDuration(snap.Elapsed),
		FormatCount(snap.Overwritten),
		FormatCount(snap.Skipped),
		FormatCount(snap.Errors),
	)
}

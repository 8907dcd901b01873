package stats

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
)

// Collector accumulates the counters of one transfer request. Every phase
// writes into the same Collector and none of them ever resets it, so all
// counters are monotonically non-decreasing. Counters are atomic because a
// progress sink may read them from another goroutine.
type Collector struct {
	files       atomic.Int64
	dirs        atomic.Int64
	overwritten atomic.Int64
	skipped     atomic.Int64
	errors      atomic.Int64
	bytesCopied atomic.Int64
	bytesTotal  atomic.Int64
	filesTotal  atomic.Int64
	dirsTotal   atomic.Int64
	startTime   time.Time
}

// NewCollector creates a Collector with startTime set to now.
func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

// Scan holds the totals of one scan pass. The scanner fills it even when it
// stops early, and the caller commits it with AddScan either way.
type Scan struct {
	Bytes  int64
	Files  int64
	Dirs   int64
	Errors int64
	// Skipped counts objects left out by exclude rules.
	Skipped int64
}

// AddScan commits the totals and error count of a scan pass.
func (c *Collector) AddScan(s Scan) {
	c.bytesTotal.Add(s.Bytes)
	c.filesTotal.Add(s.Files)
	c.dirsTotal.Add(s.Dirs)
	c.errors.Add(s.Errors)
	c.skipped.Add(s.Skipped)
}

func (c *Collector) AddFiles(n int64)       { c.files.Add(n) }
func (c *Collector) AddDirs(n int64)        { c.dirs.Add(n) }
func (c *Collector) AddOverwritten(n int64) { c.overwritten.Add(n) }
func (c *Collector) AddSkipped(n int64)     { c.skipped.Add(n) }
func (c *Collector) AddErrors(n int64)      { c.errors.Add(n) }
func (c *Collector) AddBytesCopied(n int64) { c.bytesCopied.Add(n) }

// Errors returns the current error count.
func (c *Collector) Errors() int64 { return c.errors.Load() }

// Skipped returns the current skip count.
func (c *Collector) Skipped() int64 { return c.skipped.Load() }

// Clean reports whether the request has so far had neither errors nor
// skipped objects, the precondition for deleting move sources.
func (c *Collector) Clean() bool {
	return c.errors.Load() == 0 && c.skipped.Load() == 0
}

// StartTime returns when the request started.
func (c *Collector) StartTime() time.Time { return c.startTime }

// Elapsed returns time since collector creation.
func (c *Collector) Elapsed() time.Duration {
	return time.Since(c.startTime)
}

// Snapshot is a point-in-time read of all counters.
type Snapshot struct {
	Files       int64
	Dirs        int64
	Overwritten int64
	Skipped     int64
	Errors      int64
	BytesCopied int64
	BytesTotal  int64
	FilesTotal  int64
	DirsTotal   int64
	Elapsed     time.Duration
}

// Snapshot returns a point-in-time read of all counters.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		Files:       c.files.Load(),
		Dirs:        c.dirs.Load(),
		Overwritten: c.overwritten.Load(),
		Skipped:     c.skipped.Load(),
		Errors:      c.errors.Load(),
		BytesCopied: c.bytesCopied.Load(),
		BytesTotal:  c.bytesTotal.Load(),
		FilesTotal:  c.filesTotal.Load(),
		DirsTotal:   c.dirsTotal.Load(),
		Elapsed:     c.Elapsed(),
	}
}

// Failed reports whether anything was skipped or failed.
func (s Snapshot) Failed() bool {
	return s.Errors > 0 || s.Skipped > 0
}

func (s Snapshot) String() string {
	return fmt.Sprintf(
		"files=%d dirs=%d overwritten=%d skipped=%d errors=%d bytes=%d",
		s.Files, s.Dirs, s.Overwritten, s.Skipped, s.Errors, s.BytesCopied,
	)
}

// FormatBytes returns a human-readable byte count.
func FormatBytes(b int64) string {
	if b < 0 {
		b = 0
	}
	return humanize.IBytes(uint64(b))
}

package ui

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bamsammich/devfs/internal/config"
	"github.com/bamsammich/devfs/internal/engine"
	"github.com/bamsammich/devfs/internal/event"
	"github.com/bamsammich/devfs/internal/stats"
)

// DefaultInterval is how often a running copy redraws its progress line.
const DefaultInterval = 500 * time.Millisecond

// Config selects and configures a ProgressSink.
type Config struct {
	// Out receives the final summary, Err the progress line and failures.
	Out io.Writer
	Err io.Writer

	Interval  time.Duration
	ShowStats config.ShowStats
	Width     int

	Quiet   bool
	Verbose bool
	// TTY redraws the progress line in place instead of appending lines.
	TTY bool

	now func() time.Time
}

// NewSink returns the sink for cfg: silent in quiet mode, a throttled
// single-line reporter otherwise.
func NewSink(cfg Config) engine.ProgressSink {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Width <= 0 {
		cfg.Width = 80
	}
	if cfg.now == nil {
		cfg.now = time.Now
	}
	if cfg.Quiet {
		return &quietSink{cfg: cfg}
	}
	return &lineSink{cfg: cfg}
}

// lineSink prints one progress line per interval to Err.
type lineSink struct {
	cfg Config

	mu    sync.Mutex
	last  time.Time
	force bool
	// drawn is the width of the line currently on a TTY.
	drawn int
}

func (s *lineSink) UpdateNeeded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.force || s.cfg.now().Sub(s.last) >= s.cfg.Interval
}

func (s *lineSink) ForceUpdate() {
	s.mu.Lock()
	s.force = true
	s.mu.Unlock()
}

func (s *lineSink) Report(p engine.Progress, _ stats.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.cfg.now()
	s.last = now
	s.force = false

	line := progressLine(p, now)
	if !s.cfg.TTY {
		fmt.Fprintln(s.cfg.Err, line)
		return
	}
	line = truncate(line, s.cfg.Width-1)
	pad := ""
	if n := len([]rune(line)); n < s.drawn {
		pad = strings.Repeat(" ", s.drawn-n)
	}
	fmt.Fprint(s.cfg.Err, "\r"+line+pad)
	s.drawn = len([]rune(line))
}

func (s *lineSink) ReportDone(snap stats.Snapshot, log *event.Log) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg.TTY && s.drawn > 0 {
		fmt.Fprint(s.cfg.Err, "\r"+strings.Repeat(" ", s.drawn)+"\r")
		s.drawn = 0
	}
	if s.cfg.Verbose {
		writeFailures(s.cfg.Err, log)
	}
	if !ShouldShowStats(s.cfg.ShowStats, snap) {
		return
	}
	fmt.Fprintln(s.cfg.Out, completionSummary(snap))
	if s.cfg.Verbose {
		writeBreakdown(s.cfg.Out, log)
	}
}

// quietSink never draws progress and prints the summary only when
// show_stats asks for it.
type quietSink struct {
	cfg Config
}

func (*quietSink) UpdateNeeded() bool                     { return false }
func (*quietSink) ForceUpdate()                           {}
func (*quietSink) Report(engine.Progress, stats.Snapshot) {}

func (q *quietSink) ReportDone(snap stats.Snapshot, _ *event.Log) {
	if ShouldShowStats(q.cfg.ShowStats, snap) {
		fmt.Fprintln(q.cfg.Out, completionSummary(snap))
	}
}

// progressLine renders: path  1.2 MiB/3.0 MiB  40%  4.1 MiB/s  eta 3s
func progressLine(p engine.Progress, now time.Time) string {
	var b strings.Builder
	b.WriteString(p.SrcPath)
	if p.FileTotal > 0 {
		fmt.Fprintf(&b, "  %s/%s", FormatBytes(p.FileCopied), FormatBytes(p.FileTotal))
	}

	rate := 0.0
	if elapsed := now.Sub(p.Started).Seconds(); elapsed > 0 {
		rate = float64(p.TotalCopied) / elapsed
	}
	if p.TotalBytes > 0 {
		pct := float64(p.TotalCopied) / float64(p.TotalBytes) * 100
		fmt.Fprintf(&b, "  %.0f%%", min(pct, 100))
	}
	fmt.Fprintf(&b, "  %s", FormatRate(rate))

	var eta time.Duration
	if rate > 0 && p.TotalBytes > p.TotalCopied {
		eta = time.Duration(float64(p.TotalBytes-p.TotalCopied) / rate * float64(time.Second))
	}
	fmt.Fprintf(&b, "  eta %s", FormatETA(eta))
	return b.String()
}

// truncate shortens s to width runes, cutting from the left so the file
// name and numbers stay visible.
func truncate(s string, width int) string {
	r := []rune(s)
	if width <= 1 || len(r) <= width {
		return s
	}
	return "…" + string(r[len(r)-width+1:])
}

func writeFailures(w io.Writer, log *event.Log) {
	if log == nil {
		return
	}
	for _, e := range log.Failures() {
		fmt.Fprintf(w, "%s failed: %s: %v\n", e.Type, e.Path, e.Error)
	}
}

func writeBreakdown(w io.Writer, log *event.Log) {
	if log == nil {
		return
	}
	byType := log.ByType()
	types := make([]event.Type, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	for _, t := range types {
		fmt.Fprintf(w, "  %-14s %s\n", t, FormatCount(int64(len(byType[t]))))
	}
}

package engine

import (
	"time"

	"github.com/bamsammich/devfs/internal/event"
	"github.com/bamsammich/devfs/internal/stats"
	"github.com/bamsammich/devfs/internal/vfs"
)

// Progress is a snapshot of a running copy, enough to derive throughput and
// ETA.
type Progress struct {
	Started     time.Time
	FileStarted time.Time
	SrcPath     string
	DstPath     string
	FileCopied  int64
	FileTotal   int64
	TotalCopied int64
	TotalBytes  int64
}

// ProgressSink receives progress while a request runs and the final summary
// once it ends. The sink owns throttling: the engine only calls Report when
// UpdateNeeded returns true.
type ProgressSink interface {
	UpdateNeeded() bool
	// ForceUpdate makes the next UpdateNeeded return true.
	ForceUpdate()
	Report(p Progress, snap stats.Snapshot)
	ReportDone(snap stats.Snapshot, log *event.Log)
}

// Answer is the reply to an overwrite question.
type Answer int

const (
	AnswerYes Answer = iota + 1
	AnswerYesAll
	AnswerNo
	AnswerNoAll
	AnswerCancel
)

// Asker decides, on behalf of the user, whether an existing destination file
// is overwritten.
type Asker interface {
	AskOverwrite(src, dst vfs.FileEntry) Answer
}

type nopSink struct{}

func (nopSink) UpdateNeeded() bool                    { return false }
func (nopSink) ForceUpdate()                          {}
func (nopSink) Report(Progress, stats.Snapshot)       {}
func (nopSink) ReportDone(stats.Snapshot, *event.Log) {}

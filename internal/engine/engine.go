// Package engine runs transfer requests between two filesystems: it plans a
// selection, moves what it can with server-side renames, scans the rest,
// copies it and, for a move, deletes the sources once everything arrived.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/time/rate"

	"github.com/bamsammich/devfs/internal/event"
	"github.com/bamsammich/devfs/internal/filter"
	"github.com/bamsammich/devfs/internal/stats"
	"github.com/bamsammich/devfs/internal/vfs"
)

// TransferContext is everything a request runs against. The filesystems are
// borrowed: the engine never closes them.
type TransferContext struct {
	Src vfs.FileSystem
	Dst vfs.FileSystem
	// Sink receives progress; nil discards it.
	Sink ProgressSink
	// Asker answers overwrite questions; nil answers No.
	Asker   Asker
	Filters *filter.Registry
	Options Options
}

// Request is one copy or move of a selection.
type Request struct {
	// SrcDir holds every selected object.
	SrcDir string
	// DstCwd is the directory a relative DstExpr is resolved against.
	DstCwd  string
	DstExpr string
	Names   []string
	Move    bool
}

// Result is the outcome of a request.
type Result struct {
	Log *event.Log
	// Err is the reason the request stopped early, or nil.
	Err error
	// Finished lists the selection indices moved by server-side rename.
	Finished []int
	Stats    stats.Snapshot
	// SourcesKept is set for a move whose sources were not deleted
	// because something failed or was skipped.
	SourcesKept bool
}

// Cancelled reports whether the user stopped the request.
func (r Result) Cancelled() bool { return errors.Is(r.Err, ErrCancelled) }

// Disconnected reports whether the device went away during the request.
func (r Result) Disconnected() bool { return vfs.IsDisconnected(r.Err) }

// run is the state of one request. Nothing in it outlives the request.
type run struct {
	ctx       context.Context
	err       error
	tc        *TransferContext
	sink      ProgressSink
	stats     *stats.Collector
	log       *event.Log
	buf       *buffer
	tmp       *tmpFiles
	limiter   *rate.Limiter
	filters   *filter.Resolver
	progress  Progress
	overwrite Overwrite
	madeDirs  []madeDir
}

func newRun(ctx context.Context, tc *TransferContext) *run {
	r := &run{
		ctx:       ctx,
		tc:        tc,
		sink:      tc.Sink,
		stats:     stats.NewCollector(),
		log:       event.NewLog(),
		overwrite: tc.Options.Overwrite,
	}
	if r.sink == nil {
		r.sink = nopSink{}
	}
	r.progress.Started = r.stats.StartTime()
	return r
}

// acquire sets up the per-request copy resources.
func (r *run) acquire() {
	opts := r.tc.Options
	r.buf = newBuffer(opts.BufferSize)
	r.tmp = newTmpFiles(r.tc.Dst)
	if opts.BWLimit > 0 {
		r.limiter = NewBWLimiter(opts.BWLimit)
	}
	if opts.UseFilters && r.tc.Filters.Len() > 0 {
		r.filters = r.tc.Filters.NewResolver()
	}
}

// release frees the copy resources. It runs on every exit path.
func (r *run) release() {
	if r.tmp != nil {
		r.tmp.cleanup()
	}
	if r.buf != nil {
		r.buf.release()
	}
}

func (r *run) done(finished mapset.Set[int]) Result {
	snap := r.stats.Snapshot()
	r.sink.ReportDone(snap, r.log)

	res := Result{Stats: snap, Log: r.log, Err: r.err}
	if finished != nil {
		res.Finished = finished.ToSlice()
		sort.Ints(res.Finished)
	}
	return res
}

// Transfer copies or moves the objects of req from tc.Src to tc.Dst.
// Validation failures are returned before anything is written. Counters are
// kept in the result whatever way the request ends.
func Transfer(ctx context.Context, tc *TransferContext, req Request) Result {
	r := newRun(ctx, tc)
	defer r.release()

	exclude, err := compileExclude(tc.Options.Exclude, tc.Options.FilterFile)
	if err != nil {
		r.stop(err)
		return r.done(nil)
	}
	plan, err := PlanTransfer(tc, req)
	if err != nil {
		r.stop(err)
		return r.done(nil)
	}
	slog.Debug("transfer planned",
		"src", req.SrcDir, "dst", plan.DstDir, "rename", plan.Rename,
		"objects", len(req.Names), "move", req.Move, "fast_path", plan.FastPath)

	r.acquire()
	if err := vfs.MkdirAll(tc.Dst, plan.DstDir); err != nil {
		r.settle(event.Mkdir, plan.DstDir, err)
		r.stop(fmt.Errorf("create destination %s: %w", plan.DstDir, err))
		return r.done(nil)
	}

	finished := mapset.NewThreadUnsafeSet[int]()
	if plan.FastPath {
		var out Outcome
		finished, out = r.tryMoveAll(req.SrcDir, req.Names, plan)
		if out.Stop() {
			return r.done(finished)
		}
	}
	if finished.Cardinality() == len(req.Names) {
		return r.done(finished)
	}

	list, totals, err := Scan(ctx, tc.Src, req.SrcDir, req.Names, ScanOptions{
		Skip:         finished,
		Exclude:      exclude,
		Log:          r.log,
		IgnoreErrors: tc.Options.IgnoreErrors,
	})
	r.stats.AddScan(totals)
	r.progress.TotalBytes = totals.Bytes
	if err != nil {
		if r.ctx.Err() != nil {
			err = ErrCancelled
		}
		r.stop(err)
		res := r.done(finished)
		res.SourcesKept = req.Move
		return res
	}

	out := r.copyAll(list, plan)
	if !out.Stop() {
		out = r.finishDirs()
	}
	if out.Stop() {
		res := r.done(finished)
		res.SourcesKept = req.Move
		return res
	}

	if !req.Move {
		return r.done(finished)
	}
	if !r.stats.Clean() {
		slog.Warn("move incomplete, sources kept",
			"errors", r.stats.Errors(), "skipped", r.stats.Skipped())
		res := r.done(finished)
		res.SourcesKept = true
		return res
	}
	r.deleteAll(list, false)
	return r.done(finished)
}

// Remove deletes the named objects of dir on tc.Src, children first.
func Remove(ctx context.Context, tc *TransferContext, dir string, names []string) Result {
	r := newRun(ctx, tc)

	if len(names) == 0 {
		r.stop(ErrNothingSelected)
		return r.done(nil)
	}
	for _, name := range names {
		if err := checkName(name); err != nil {
			r.stop(err)
			return r.done(nil)
		}
	}

	list, totals, err := Scan(ctx, tc.Src, dir, names, ScanOptions{
		Log:          r.log,
		IgnoreErrors: tc.Options.IgnoreErrors,
	})
	r.stats.AddScan(totals)
	if err != nil {
		if r.ctx.Err() != nil {
			err = ErrCancelled
		}
		r.stop(err)
		return r.done(nil)
	}
	r.deleteAll(list, true)
	return r.done(nil)
}

func compileExclude(patterns []string, rulesFile string) (*filter.Chain, error) {
	chain := filter.NewChain()
	for _, p := range patterns {
		if err := chain.AddExclude(p); err != nil {
			return nil, fmt.Errorf("exclude: %w", err)
		}
	}
	if rulesFile != "" {
		if err := chain.LoadFile(rulesFile); err != nil {
			return nil, err
		}
	}
	return chain, nil
}

package engine

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/bamsammich/devfs/internal/event"
	"github.com/bamsammich/devfs/internal/filter"
	"github.com/bamsammich/devfs/internal/vfs"
)

// copyAll copies every scanned item in scan order.
func (r *run) copyAll(list FileList, plan Plan) Outcome {
	for _, item := range list.Items {
		if r.cancelled() {
			return Cancel
		}
		var out Outcome
		if item.IsDir() {
			out = r.copyDir(item, plan)
		} else {
			out = r.copyFile(item, plan)
		}
		if out.Stop() {
			return out
		}
	}
	return Continue
}

// copyDir creates the destination directory of item, reusing one that
// already exists.
func (r *run) copyDir(item Item, plan Plan) Outcome {
	dst := vfs.Join(plan.DstDir, plan.dstRel(item.Rel))
	existing, err := r.tc.Dst.Stat(dst)
	switch {
	case err == nil && existing.IsDir():
		r.stats.AddDirs(1)
		return Continue
	case err == nil:
		return r.settle(event.Mkdir, dst, fmt.Errorf("mkdir %s: a file with that name exists", dst))
	case !errors.Is(err, vfs.ErrNotExist):
		return r.settle(event.Mkdir, dst, err)
	}

	if err := r.tc.Dst.Mkdir(dst); err != nil {
		return r.settle(event.Mkdir, dst, err)
	}
	r.stats.AddDirs(1)
	r.log.Record(event.Mkdir, dst, nil)
	r.madeDirs = append(r.madeDirs, madeDir{path: dst, attrs: entryAttributes(item.FileEntry)})
	return Continue
}

// madeDir is a directory created by the request, waiting for its attributes.
type madeDir struct {
	path  string
	attrs vfs.Attributes
}

// finishDirs applies source attributes to the directories the request
// created, deepest first. It runs once every file is in place, so a
// read-only directory still receives its children and its modification
// time is not bumped by them.
func (r *run) finishDirs() Outcome {
	for i := len(r.madeDirs) - 1; i >= 0; i-- {
		if r.cancelled() {
			return Cancel
		}
		d := r.madeDirs[i]
		if err := r.tc.Dst.SetAttributes(d.path, d.attrs); err != nil {
			if out := r.settle(event.SetAttributes, d.path, fmt.Errorf("set attributes %s: %w", d.path, err)); out.Stop() {
				return out
			}
		}
	}
	return Continue
}

func entryAttributes(e vfs.FileEntry) vfs.Attributes {
	return vfs.Attributes{
		Accessed: e.Accessed,
		Modified: e.Modified,
		ReadOnly: e.Attr.Has(vfs.AttrReadOnly),
	}
}

func (r *run) copyFile(item Item, plan Plan) Outcome {
	srcPath := item.Path()
	dstRel := plan.dstRel(item.Rel)

	sel := filter.NoFilter
	if r.filters != nil {
		sel = r.filters.Resolve(item.Name)
	}
	if sel.Convert {
		dir, name := vfs.Split(dstRel)
		dstRel = vfs.Join(dir, sel.Spec.DstName(name))
	}
	dstPath := vfs.Join(plan.DstDir, dstRel)

	existing, err := r.tc.Dst.Stat(dstPath)
	replace := err == nil
	if err != nil && !errors.Is(err, vfs.ErrNotExist) {
		return r.settle(event.Copy, dstPath, err)
	}
	if replace {
		if existing.IsDir() {
			return r.settle(event.Copy, dstPath, fmt.Errorf("copy %s: destination is a directory", dstPath))
		}
		ok, out := r.confirmOverwrite(item.FileEntry, existing)
		if out.Stop() {
			return out
		}
		if !ok {
			r.stats.AddSkipped(1)
			r.log.Add(event.Event{Type: event.Skip, Path: srcPath, Message: "destination exists"})
			r.progress.TotalCopied += item.Size
			return Continue
		}
	}

	r.startFile(srcPath, dstPath, item.Size)
	if err := r.transferFile(item, dstPath, replace, sel); err != nil {
		return r.settle(event.Copy, srcPath, err)
	}

	r.stats.AddFiles(1)
	if replace {
		r.stats.AddOverwritten(1)
		r.log.Record(event.Overwrite, dstPath, nil)
	} else {
		r.log.Record(event.Copy, dstPath, nil)
	}
	return Continue
}

// confirmOverwrite applies the overwrite policy. YesAll and NoAll replace
// the policy for the rest of the request.
func (r *run) confirmOverwrite(src, dst vfs.FileEntry) (bool, Outcome) {
	switch r.overwrite {
	case OverwriteAlways:
		return true, Continue
	case OverwriteSkip:
		return false, Continue
	}
	if r.tc.Asker == nil {
		return false, Continue
	}

	switch r.tc.Asker.AskOverwrite(src, dst) {
	case AnswerYes:
		return true, Continue
	case AnswerYesAll:
		r.overwrite = OverwriteAlways
		return true, Continue
	case AnswerNo:
		return false, Continue
	case AnswerNoAll:
		r.overwrite = OverwriteSkip
		return false, Continue
	default:
		r.stop(ErrCancelled)
		return false, Cancel
	}
}

// transferFile writes the bytes of item to dstPath, through a temporary
// name when configured, then applies verification and attributes.
func (r *run) transferFile(item Item, dstPath string, replace bool, sel filter.Selection) error {
	opts := r.tc.Options
	srcPath := item.Path()

	in, err := r.tc.Src.OpenRead(srcPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", srcPath, err)
	}
	defer in.Close()

	target := dstPath
	if opts.UseTmpFiles {
		target = tmpName(dstPath)
		r.tmp.register(target)
	}
	out, err := r.tc.Dst.OpenWrite(target, opts.Shared)
	if err != nil {
		return fmt.Errorf("create %s: %w", target, err)
	}

	src := newRateLimitedReader(r.ctx, in, r.limiter)
	if sel.Convert {
		err = sel.Spec.Converter.Convert(out, &progressReader{r: src, run: r}, sel.Spec.SrcExt, sel.Spec.DstExt)
		if err != nil {
			err = fmt.Errorf("convert %s: %w", srcPath, err)
		}
	} else {
		err = r.stream(out, src)
	}
	if closeErr := out.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("close %s: %w", target, closeErr)
	}
	if err != nil {
		r.discard(target)
		return err
	}

	if target != dstPath {
		if replace {
			if err := r.tc.Dst.DeleteFile(dstPath); err != nil && !errors.Is(err, vfs.ErrNotExist) {
				r.discard(target)
				return fmt.Errorf("replace %s: %w", dstPath, err)
			}
		}
		if err := r.tc.Dst.Rename(target, dstPath); err != nil {
			r.discard(target)
			return fmt.Errorf("rename %s: %w", target, err)
		}
		r.tmp.deregister(target)
	}

	if opts.Verify && !sel.Convert {
		if err := verifyCopy(r.tc.Src, srcPath, r.tc.Dst, dstPath); err != nil {
			r.log.Record(event.Verify, dstPath, err)
			return err
		}
	}

	if err := r.tc.Dst.SetAttributes(dstPath, entryAttributes(item.FileEntry)); err != nil {
		r.log.Record(event.SetAttributes, dstPath, err)
		return fmt.Errorf("set attributes %s: %w", dstPath, err)
	}
	return nil
}

// stream copies src to dst through the request buffer, reporting progress
// after every chunk.
func (r *run) stream(dst io.Writer, src io.Reader) error {
	for {
		if r.ctx.Err() != nil {
			return ErrCancelled
		}
		buf := r.buf.bytes()
		start := time.Now()
		n, readErr := src.Read(buf)
		if n > 0 {
			if _, err := dst.Write(buf[:n]); err != nil {
				return fmt.Errorf("write: %w", err)
			}
			r.advance(int64(n))
		}
		r.buf.observe(n, time.Since(start))
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return fmt.Errorf("read: %w", readErr)
		}
	}
}

// discard removes a partially written file.
func (r *run) discard(path string) {
	err := r.tc.Dst.DeleteFile(path)
	switch {
	case err == nil, errors.Is(err, vfs.ErrNotExist):
		r.tmp.deregister(path)
	case vfs.IsDisconnected(err):
	default:
		slog.Debug("remove partial file", "path", path, "error", err)
	}
}

func (r *run) startFile(src, dst string, size int64) {
	now := time.Now()
	r.progress.SrcPath = src
	r.progress.DstPath = dst
	r.progress.FileCopied = 0
	r.progress.FileTotal = size
	r.progress.FileStarted = now
	r.sink.ForceUpdate()
	r.report()
}

func (r *run) advance(n int64) {
	r.progress.FileCopied += n
	r.progress.TotalCopied += n
	r.stats.AddBytesCopied(n)
	r.report()
}

func (r *run) report() {
	if r.sink.UpdateNeeded() {
		r.sink.Report(r.progress, r.stats.Snapshot())
	}
}

// progressReader counts bytes a converter pulls from the source.
type progressReader struct {
	r   io.Reader
	run *run
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.run.advance(int64(n))
	}
	return n, err
}

package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/bamsammich/devfs/internal/event"
	"github.com/bamsammich/devfs/internal/filter"
	"github.com/bamsammich/devfs/internal/stats"
	"github.com/bamsammich/devfs/internal/vfs"
)

// Item is one scanned object.
type Item struct {
	vfs.FileEntry
	// Rel is the slash-separated path relative to the source directory. Its
	// first segment is the selected name.
	Rel string
	// Top is the index of the selected name the item came from.
	Top int
}

// FileList is the flat result of a scan. Every directory comes before its
// descendants, so walking Items backwards visits children before parents.
type FileList struct {
	SrcDir string
	Items  []Item
}

// ScanOptions controls a scan.
type ScanOptions struct {
	// Skip holds selection indices that must not be scanned.
	Skip    mapset.Set[int]
	Exclude *filter.Chain
	Log     *event.Log
	// IgnoreErrors counts a failed object and goes on with its siblings.
	// Otherwise the first failure ends the scan.
	IgnoreErrors bool
}

// Scan expands names under srcDir depth-first into a FileList. The returned
// totals are valid even when err is non-nil and must be committed by the
// caller either way. Failures that were already counted in the totals are
// returned as is; disconnection and cancellation are not counted.
func Scan(ctx context.Context, fsys vfs.FileSystem, srcDir string, names []string, opts ScanOptions) (FileList, stats.Scan, error) {
	s := &scanner{
		ctx:  ctx,
		fsys: fsys,
		opts: opts,
		list: FileList{SrcDir: vfs.Clean(srcDir)},
	}
	if s.opts.Log == nil {
		s.opts.Log = event.NewLog()
	}

	for i, name := range names {
		if s.opts.Skip != nil && s.opts.Skip.Contains(i) {
			continue
		}
		if ctx.Err() != nil {
			return s.list, s.totals, ErrCancelled
		}
		if err := s.scanTop(i, name); err != nil {
			return s.list, s.totals, err
		}
	}
	return s.list, s.totals, nil
}

type scanner struct {
	ctx    context.Context
	fsys   vfs.FileSystem
	opts   ScanOptions
	list   FileList
	totals stats.Scan
}

func (s *scanner) scanTop(idx int, name string) error {
	srcPath := vfs.Join(s.list.SrcDir, name)
	entry, err := s.fsys.Stat(srcPath)
	if err != nil {
		return s.fail(srcPath, fmt.Errorf("stat %s: %w", srcPath, err))
	}
	_, err = s.add(entry, name, idx)
	return err
}

// add appends entry and, for a directory, everything below it. It returns
// the number of objects appended.
func (s *scanner) add(entry vfs.FileEntry, rel string, top int) (int64, error) {
	if !s.opts.Exclude.Match(rel, entry.IsDir()) {
		s.totals.Skipped++
		s.opts.Log.Add(event.Event{Type: event.Skip, Path: entry.Path(), Message: "excluded"})
		return 0, nil
	}

	pos := len(s.list.Items)
	s.list.Items = append(s.list.Items, Item{FileEntry: entry, Rel: rel, Top: top})
	if !entry.IsDir() {
		s.totals.Files++
		s.totals.Bytes += entry.Size
		return 1, nil
	}
	s.totals.Dirs++

	children, err := s.fsys.List(entry.Path())
	if err != nil {
		return 1, s.fail(entry.Path(), fmt.Errorf("list %s: %w", entry.Path(), err))
	}
	sort.Slice(children, func(i, j int) bool { return children[i].Name < children[j].Name })

	var descendants int64
	for _, child := range children {
		if s.ctx.Err() != nil {
			return 1 + descendants, ErrCancelled
		}
		n, err := s.add(child, vfs.Join(rel, child.Name), top)
		descendants += n
		if err != nil {
			s.list.Items[pos].Descendants = descendants
			return 1 + descendants, err
		}
	}
	s.list.Items[pos].Descendants = descendants
	return 1 + descendants, nil
}

// fail counts a scan failure. It returns nil when the scan may go on.
func (s *scanner) fail(path string, err error) error {
	if vfs.IsDisconnected(err) || errors.Is(err, ErrCancelled) {
		return err
	}
	s.totals.Errors++
	s.opts.Log.Record(event.Scan, path, err)
	if s.opts.IgnoreErrors {
		slog.Warn("scan failed, continuing", "path", path, "error", err)
		return nil
	}
	return err
}

package engine

import (
	"errors"
	"log/slog"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/bamsammich/devfs/internal/event"
	"github.com/bamsammich/devfs/internal/vfs"
)

// tryMoveAll renames each selected object on the remote filesystem and
// returns the indices that no longer need scan, copy and delete. A failed
// rename is not an error; the object is left for the copy path.
func (r *run) tryMoveAll(srcDir string, names []string, plan Plan) (mapset.Set[int], Outcome) {
	finished := mapset.NewThreadUnsafeSet[int]()
	fsys := r.tc.Src
	for i, name := range names {
		if r.cancelled() {
			return finished, Cancel
		}
		src := vfs.Join(srcDir, name)
		dst := vfs.Join(plan.DstDir, plan.dstName(name))

		entry, err := fsys.Stat(src)
		if err != nil {
			if vfs.IsDisconnected(err) {
				return finished, r.settle(event.Rename, src, err)
			}
			slog.Debug("fast move: stat failed", "path", src, "error", err)
			continue
		}
		if err := fsys.Rename(src, dst); err != nil {
			if vfs.IsDisconnected(err) {
				return finished, r.settle(event.Rename, src, err)
			}
			if !errors.Is(err, vfs.ErrExist) {
				slog.Debug("fast move: rename failed", "src", src, "dst", dst, "error", err)
			}
			continue
		}

		finished.Add(i)
		if entry.IsDir() {
			r.stats.AddDirs(1)
		} else {
			r.stats.AddFiles(1)
		}
		r.log.Add(event.Event{Type: event.Rename, Path: src, Message: dst})
	}
	return finished, Continue
}

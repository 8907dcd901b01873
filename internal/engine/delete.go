package engine

import (
	"github.com/bamsammich/devfs/internal/event"
)

// deleteAll removes the scanned items from tc.Src in reverse scan order, so
// every directory is empty by the time it is removed. count adds the deleted
// objects to the file and directory counters, for deletions that are not the
// tail of a move. Deleted objects stay deleted when the pass stops early.
func (r *run) deleteAll(list FileList, count bool) Outcome {
	for i := len(list.Items) - 1; i >= 0; i-- {
		if r.cancelled() {
			return Cancel
		}
		item := list.Items[i]
		path := item.Path()

		kind := event.DeleteFile
		var err error
		if item.IsDir() {
			kind = event.DeleteDir
			err = r.tc.Src.DeleteDir(path)
		} else {
			err = r.tc.Src.DeleteFile(path)
		}
		if out := r.settle(kind, path, err); out != Continue {
			if out.Stop() {
				return out
			}
			continue
		}

		r.log.Record(kind, path, nil)
		if !count {
			continue
		}
		if item.IsDir() {
			r.stats.AddDirs(1)
		} else {
			r.stats.AddFiles(1)
		}
	}
	return Continue
}

package engine

import (
	"log/slog"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"

	"github.com/bamsammich/devfs/internal/vfs"
)

const tmpSuffix = ".devfs-tmp"

// tmpName returns a hidden temporary name next to dst.
func tmpName(dst string) string {
	dir, name := vfs.Split(dst)
	return vfs.Join(dir, "."+name+"."+uuid.NewString()[:8]+tmpSuffix)
}

// tmpFiles tracks the temporary files a request has open on its destination
// so that none survive the request, whatever path it ends on.
type tmpFiles struct {
	fsys  vfs.FileSystem
	paths mapset.Set[string]
}

func newTmpFiles(fsys vfs.FileSystem) *tmpFiles {
	return &tmpFiles{fsys: fsys, paths: mapset.NewThreadUnsafeSet[string]()}
}

func (t *tmpFiles) register(path string) { t.paths.Add(path) }

func (t *tmpFiles) deregister(path string) { t.paths.Remove(path) }

// cleanup removes every temporary file still registered.
func (t *tmpFiles) cleanup() {
	for _, p := range t.paths.ToSlice() {
		if err := t.fsys.DeleteFile(p); err != nil && !vfs.IsDisconnected(err) {
			slog.Debug("remove temporary file", "path", p, "error", err)
		}
		t.paths.Remove(p)
	}
}

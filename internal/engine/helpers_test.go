package engine_test

import (
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bamsammich/devfs/internal/engine"
	"github.com/bamsammich/devfs/internal/event"
	"github.com/bamsammich/devfs/internal/stats"
	"github.com/bamsammich/devfs/internal/vfs"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func readFile(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func exists(root, rel string) bool {
	_, err := os.Lstat(filepath.Join(root, filepath.FromSlash(rel)))
	return err == nil
}

// createTestTree populates root with:
//
//	src/note.txt
//	src/pics/a.jpg
//	src/pics/b.jpg
//	src/pics/raw/c.dng
//	dst/
func createTestTree(t *testing.T, root string) {
	t.Helper()
	writeFile(t, root, "src/note.txt", "note content")
	writeFile(t, root, "src/pics/a.jpg", "jpeg a")
	writeFile(t, root, "src/pics/b.jpg", "jpeg bb")
	writeFile(t, root, "src/pics/raw/c.dng", "raw image data")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "dst"), 0o755))
}

type treeEntry struct {
	Size     int64
	Dir      bool
	ReadOnly bool
}

// snapshotTree records every path below root with its size and flags.
func snapshotTree(t *testing.T, root string) map[string]treeEntry {
	t.Helper()
	out := make(map[string]treeEntry)
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == root {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		e := treeEntry{Dir: d.IsDir(), ReadOnly: info.Mode().Perm()&0o200 == 0}
		if !d.IsDir() {
			e.Size = info.Size()
		}
		out[filepath.ToSlash(rel)] = e
		return nil
	})
	require.NoError(t, err)
	return out
}

// localContext returns a context copying between two fresh local roots.
func localContext(t *testing.T) (*engine.TransferContext, string, string) {
	t.Helper()
	src, dst := t.TempDir(), t.TempDir()
	return &engine.TransferContext{
		Src:     vfs.NewLocal(src),
		Dst:     vfs.NewLocal(dst),
		Options: engine.Options{Overwrite: engine.OverwriteSkip},
	}, src, dst
}

// recordingSink is a ProgressSink that always wants updates.
type recordingSink struct {
	mu       sync.Mutex
	reports  []engine.Progress
	done     int
	final    stats.Snapshot
	finalLog *event.Log
	forced   int
}

func (s *recordingSink) UpdateNeeded() bool { return true }

func (s *recordingSink) ForceUpdate() {
	s.mu.Lock()
	s.forced++
	s.mu.Unlock()
}

func (s *recordingSink) Report(p engine.Progress, _ stats.Snapshot) {
	s.mu.Lock()
	s.reports = append(s.reports, p)
	s.mu.Unlock()
}

func (s *recordingSink) ReportDone(snap stats.Snapshot, log *event.Log) {
	s.mu.Lock()
	s.done++
	s.final = snap
	s.finalLog = log
	s.mu.Unlock()
}

// scriptedAsker replays answers and records the destination names it was
// asked about.
type scriptedAsker struct {
	answers []engine.Answer
	asked   []string
}

func (a *scriptedAsker) AskOverwrite(_, dst vfs.FileEntry) engine.Answer {
	a.asked = append(a.asked, dst.Name)
	if len(a.answers) == 0 {
		return engine.AnswerNo
	}
	ans := a.answers[0]
	a.answers = a.answers[1:]
	return ans
}

package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/devfs/internal/filter"
	"github.com/bamsammich/devfs/internal/vfs"
	"github.com/bamsammich/devfs/internal/vfs/vfstest"
)

// scanTree creates:
//
//	top.txt      (3 bytes)
//	dir/b.txt    (5 bytes)
//	dir/a.txt    (4 bytes)
//	dir/sub/c.log (6 bytes)
//	other/d.txt  (2 bytes)
func scanTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"top.txt":       "top",
		"dir/b.txt":     "bbbbb",
		"dir/a.txt":     "aaaa",
		"dir/sub/c.log": "cccccc",
		"other/d.txt":   "dd",
	}
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

func rels(list FileList) []string {
	out := make([]string, 0, len(list.Items))
	for _, it := range list.Items {
		out = append(out, it.Rel)
	}
	return out
}

func TestScan_DepthFirstOrder(t *testing.T) {
	fsys := vfs.NewLocal(scanTree(t))

	list, totals, err := Scan(context.Background(), fsys, "", []string{"dir", "top.txt"}, ScanOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"dir", "dir/a.txt", "dir/b.txt", "dir/sub", "dir/sub/c.log", "top.txt"}, rels(list))
	assert.Equal(t, int64(3+4+5+6), totals.Bytes)
	assert.Equal(t, int64(4), totals.Files)
	assert.Equal(t, int64(2), totals.Dirs)
	assert.Zero(t, totals.Errors)

	assert.Equal(t, int64(4), list.Items[0].Descendants)
	assert.Equal(t, int64(1), list.Items[3].Descendants)
	assert.Equal(t, 0, list.Items[4].Top)
	assert.Equal(t, 1, list.Items[5].Top)
	assert.Equal(t, "dir/sub", list.Items[4].Dir)
}

func TestScan_SkipsFinished(t *testing.T) {
	fsys := vfs.NewLocal(scanTree(t))
	skip := mapset.NewThreadUnsafeSet(0)

	list, totals, err := Scan(context.Background(), fsys, "", []string{"dir", "top.txt"}, ScanOptions{Skip: skip})
	require.NoError(t, err)
	assert.Equal(t, []string{"top.txt"}, rels(list))
	assert.Equal(t, int64(1), totals.Files)
}

func TestScan_Exclude(t *testing.T) {
	fsys := vfs.NewLocal(scanTree(t))
	chain := filter.NewChain()
	require.NoError(t, chain.AddExclude("*.log"))

	list, totals, err := Scan(context.Background(), fsys, "", []string{"dir"}, ScanOptions{Exclude: chain})
	require.NoError(t, err)
	assert.NotContains(t, rels(list), "dir/sub/c.log")
	assert.Equal(t, int64(1), totals.Skipped)
	assert.Equal(t, int64(2), totals.Files)
	assert.Equal(t, int64(2), totals.Dirs)
}

func TestScan_ErrorIgnored(t *testing.T) {
	fsys := vfstest.NewFaulty(vfs.NewLocal(scanTree(t)), 0)
	fsys.Fail(vfstest.OpList, "dir/sub", errors.New("permission denied"))

	list, totals, err := Scan(context.Background(), fsys, "", []string{"dir", "other"},
		ScanOptions{IgnoreErrors: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), totals.Errors)
	assert.Equal(t, []string{"dir", "dir/a.txt", "dir/b.txt", "dir/sub", "other", "other/d.txt"}, rels(list))
}

func TestScan_ErrorAborts(t *testing.T) {
	fsys := vfstest.NewFaulty(vfs.NewLocal(scanTree(t)), 0)
	fsys.Fail(vfstest.OpList, "dir/sub", errors.New("permission denied"))

	list, totals, err := Scan(context.Background(), fsys, "", []string{"dir", "other"}, ScanOptions{})
	require.Error(t, err)
	// Partial results and the error count survive the abort.
	assert.Equal(t, int64(1), totals.Errors)
	assert.Equal(t, []string{"dir", "dir/a.txt", "dir/b.txt", "dir/sub"}, rels(list))
	assert.NotContains(t, fsys.CallsOf(vfstest.OpList), "other")
}

func TestScan_MissingTopLevel(t *testing.T) {
	fsys := vfs.NewLocal(scanTree(t))

	list, totals, err := Scan(context.Background(), fsys, "", []string{"ghost", "top.txt"},
		ScanOptions{IgnoreErrors: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), totals.Errors)
	assert.Equal(t, []string{"top.txt"}, rels(list))
}

func TestScan_DisconnectNotCounted(t *testing.T) {
	fsys := vfstest.NewFaulty(vfs.NewLocal(scanTree(t)), 0)
	fsys.Disconnect()

	_, totals, err := Scan(context.Background(), fsys, "", []string{"dir"}, ScanOptions{IgnoreErrors: true})
	require.Error(t, err)
	assert.True(t, vfs.IsDisconnected(err))
	assert.Zero(t, totals.Errors)
}

func TestScan_Cancelled(t *testing.T) {
	fsys := vfs.NewLocal(scanTree(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	list, _, err := Scan(ctx, fsys, "", []string{"dir"}, ScanOptions{})
	require.ErrorIs(t, err, ErrCancelled)
	assert.Empty(t, list.Items)
}

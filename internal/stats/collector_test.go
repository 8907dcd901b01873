package stats

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorConcurrent(t *testing.T) {
	c := NewCollector()
	const goroutines = 100
	const opsPerGoroutine = 1000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for range goroutines {
		go func() {
			defer wg.Done()
			for range opsPerGoroutine {
				c.AddFiles(1)
				c.AddDirs(1)
				c.AddOverwritten(1)
				c.AddSkipped(1)
				c.AddErrors(1)
				c.AddBytesCopied(256)
			}
		}()
	}
	wg.Wait()

	s := c.Snapshot()
	expected := int64(goroutines * opsPerGoroutine)
	assert.Equal(t, expected, s.Files)
	assert.Equal(t, expected, s.Dirs)
	assert.Equal(t, expected, s.Overwritten)
	assert.Equal(t, expected, s.Skipped)
	assert.Equal(t, expected, s.Errors)
	assert.Equal(t, expected*256, s.BytesCopied)
}

func TestAddScan(t *testing.T) {
	c := NewCollector()

	c.AddScan(Scan{Bytes: 150, Files: 3, Dirs: 1, Errors: 1, Skipped: 2})

	s := c.Snapshot()
	assert.Equal(t, int64(150), s.BytesTotal)
	assert.Equal(t, int64(3), s.FilesTotal)
	assert.Equal(t, int64(1), s.DirsTotal)
	assert.Equal(t, int64(1), s.Errors)
	assert.Equal(t, int64(2), s.Skipped)
	// Totals are not progress.
	assert.Zero(t, s.Files)
}

func TestClean(t *testing.T) {
	c := NewCollector()
	assert.True(t, c.Clean())

	c.AddFiles(3)
	c.AddOverwritten(1)
	assert.True(t, c.Clean())

	c.AddSkipped(1)
	assert.False(t, c.Clean())

	c2 := NewCollector()
	c2.AddErrors(1)
	assert.False(t, c2.Clean())
	assert.True(t, c2.Snapshot().Failed())
}

func TestSnapshotString(t *testing.T) {
	s := Snapshot{
		Files:       8,
		Dirs:        3,
		Overwritten: 2,
		Skipped:     1,
		Errors:      1,
		BytesCopied: 4096,
	}
	expected := "files=8 dirs=3 overwritten=2 skipped=1 errors=1 bytes=4096"
	assert.Equal(t, expected, s.String())
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		input    int64
		expected string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{1048576, "1.0 MiB"},
		{1073741824, "1.0 GiB"},
		{-5, "0 B"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			require.Equal(t, tt.expected, FormatBytes(tt.input))
		})
	}
}

func TestNewCollector(t *testing.T) {
	before := time.Now()
	c := NewCollector()
	assert.False(t, c.StartTime().Before(before))
	assert.GreaterOrEqual(t, c.Elapsed(), time.Duration(0))
}

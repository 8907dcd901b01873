package vfs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bamsammich/devfs/internal/vfs"
)

func TestJoin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		dir, name, want string
	}{
		{dir: "", name: "a.txt", want: "a.txt"},
		{dir: "Backup", name: "a.txt", want: "Backup/a.txt"},
		{dir: "Backup/", name: "a.txt", want: "Backup/a.txt"},
		{dir: "/", name: "a.txt", want: "/a.txt"},
		{dir: "Backup", name: "", want: "Backup"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, vfs.Join(tt.dir, tt.name))
		})
	}
}

func TestClean(t *testing.T) {
	t.Parallel()

	assert.Empty(t, vfs.Clean("/"))
	assert.Empty(t, vfs.Clean(""))
	assert.Equal(t, "Backup", vfs.Clean(`\Backup`))
	assert.Equal(t, "Docs/b.txt", vfs.Clean(`\Docs\b.txt`))
	assert.Equal(t, "a/c", vfs.Clean("/a/b/../c/"))
	assert.Equal(t, "a", vfs.Clean("../../a"))
}

func TestResolve(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Backup", vfs.Resolve("Docs", "/Backup"))
	assert.Equal(t, "Docs/Backup", vfs.Resolve("Docs", "Backup"))
	assert.Equal(t, "Backup", vfs.Resolve("Docs", "../Backup"))
}

func TestSplit(t *testing.T) {
	t.Parallel()

	dir, name := vfs.Split("/Docs/b.txt")
	assert.Equal(t, "Docs", dir)
	assert.Equal(t, "b.txt", name)

	dir, name = vfs.Split("b.txt")
	assert.Empty(t, dir)
	assert.Equal(t, "b.txt", name)

	assert.Equal(t, []string{"a", "b", "c"}, vfs.Segments("/a/b/c"))
	assert.Nil(t, vfs.Segments("/"))
}

func TestExt(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ".txt", vfs.Ext("Report.TXT"))
	assert.Equal(t, ".zst", vfs.Ext("log.txt.zst"))
	assert.Empty(t, vfs.Ext(".profile"))
	assert.Empty(t, vfs.Ext("Makefile"))
}

func TestIsAbs(t *testing.T) {
	t.Parallel()

	assert.True(t, vfs.IsAbs("/Backup"))
	assert.True(t, vfs.IsAbs(`\Backup`))
	assert.False(t, vfs.IsAbs("Backup"))
}

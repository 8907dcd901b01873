package ui

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerm_NotATerminal(t *testing.T) {
	assert.False(t, IsTTY(nil))
	assert.Equal(t, 80, TermWidth(nil))

	f, err := os.Create(filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)
	defer f.Close()

	assert.False(t, IsTTY(f))
	assert.Equal(t, 80, TermWidth(f))
}

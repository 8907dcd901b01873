package ui_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bamsammich/devfs/internal/engine"
	"github.com/bamsammich/devfs/internal/ui"
	"github.com/bamsammich/devfs/internal/vfs"
)

func TestPrompt_Answers(t *testing.T) {
	src := vfs.FileEntry{Name: "a.jpg", Dir: "pics", Size: 2048, Modified: time.Now()}
	dst := vfs.FileEntry{Name: "a.jpg", Dir: "backup", Size: 1024}

	tests := []struct {
		input string
		want  engine.Answer
	}{
		{"y\n", engine.AnswerYes},
		{"Y\n", engine.AnswerYesAll},
		{"a\n", engine.AnswerYesAll},
		{"n\n", engine.AnswerNo},
		{"N\n", engine.AnswerNoAll},
		{"none\n", engine.AnswerNoAll},
		{"c\n", engine.AnswerCancel},
		{"", engine.AnswerCancel},
		{"maybe\nn\n", engine.AnswerNo},
		{"  y  \n", engine.AnswerYes},
		{"y", engine.AnswerYes},
	}
	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			var out bytes.Buffer
			p := ui.NewPrompt(strings.NewReader(tt.input), &out)
			assert.Equal(t, tt.want, p.AskOverwrite(src, dst))
			assert.Contains(t, out.String(), "backup/a.jpg already exists")
			assert.Contains(t, out.String(), "2.0 KiB")
		})
	}
}

func TestPrompt_Reasks(t *testing.T) {
	var out bytes.Buffer
	p := ui.NewPrompt(strings.NewReader("x\nz\ny\n"), &out)
	assert.Equal(t, engine.AnswerYes, p.AskOverwrite(vfs.FileEntry{Name: "a"}, vfs.FileEntry{Name: "a"}))
	assert.Equal(t, 3, strings.Count(out.String(), "overwrite?"))
}

func TestPrompt_Sequence(t *testing.T) {
	var out bytes.Buffer
	p := ui.NewPrompt(strings.NewReader("n\ny\n"), &out)
	e := vfs.FileEntry{Name: "a"}
	assert.Equal(t, engine.AnswerNo, p.AskOverwrite(e, e))
	assert.Equal(t, engine.AnswerYes, p.AskOverwrite(e, e))
	assert.Equal(t, engine.AnswerCancel, p.AskOverwrite(e, e))
}

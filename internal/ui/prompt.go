package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/bamsammich/devfs/internal/engine"
	"github.com/bamsammich/devfs/internal/vfs"
)

// Prompt asks overwrite questions on a line-oriented terminal.
type Prompt struct {
	out io.Writer
	in  *bufio.Reader
}

var _ engine.Asker = (*Prompt)(nil)

// NewPrompt reads answers from in and writes questions to out.
func NewPrompt(in io.Reader, out io.Writer) *Prompt {
	return &Prompt{in: bufio.NewReader(in), out: out}
}

// AskOverwrite shows both entries and waits for a valid answer. End of input
// cancels the request.
func (p *Prompt) AskOverwrite(src, dst vfs.FileEntry) engine.Answer {
	fmt.Fprintf(p.out, "\n%s already exists\n", dst.Path())
	fmt.Fprintf(p.out, "  new:      %10s  %s\n", FormatBytes(src.Size), FormatTime(src.Modified))
	fmt.Fprintf(p.out, "  existing: %10s  %s\n", FormatBytes(dst.Size), FormatTime(dst.Modified))

	for {
		fmt.Fprint(p.out, "overwrite? [y]es, [a]ll, [n]o, [N]one, [c]ancel: ")
		line, err := p.in.ReadString('\n')
		if answer, ok := parseAnswer(strings.TrimSpace(line)); ok {
			return answer
		}
		if err != nil {
			fmt.Fprintln(p.out)
			return engine.AnswerCancel
		}
	}
}

func parseAnswer(s string) (engine.Answer, bool) {
	switch s {
	case "y", "yes":
		return engine.AnswerYes, true
	case "Y", "a", "all":
		return engine.AnswerYesAll, true
	case "n", "no":
		return engine.AnswerNo, true
	case "N", "none":
		return engine.AnswerNoAll, true
	case "c", "q", "cancel":
		return engine.AnswerCancel, true
	}
	return 0, false
}

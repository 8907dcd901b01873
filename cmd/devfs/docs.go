package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

// newDocsCmd writes the command reference for packaging. It is hidden from
// help output.
func newDocsCmd() *cobra.Command {
	var dir, format string
	cmd := &cobra.Command{
		Use:    "gen-docs",
		Short:  "Write man pages or markdown for every devfs command",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeDocs(cmd.Root(), dir, format)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "docs", "directory to write into")
	cmd.Flags().StringVar(&format, "format", "man", "man or markdown")
	return cmd
}

func writeDocs(root *cobra.Command, dir, format string) error {
	var gen func() error
	switch format {
	case "man":
		gen = func() error {
			return doc.GenManTree(root, &doc.GenManHeader{
				Title:   "DEVFS",
				Section: "1",
				Source:  "devfs " + version,
				Manual:  "devfs manual",
			}, dir)
		}
	case "markdown", "md":
		gen = func() error { return doc.GenMarkdownTree(root, dir) }
	default:
		return fmt.Errorf("gen-docs: unsupported format %q", format)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("gen-docs: %w", err)
	}
	return gen()
}

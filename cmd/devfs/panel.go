package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/bamsammich/devfs/internal/engine"
	"github.com/bamsammich/devfs/internal/vfs"
)

func newListCmd(g *globals) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "ls [PATH]",
		Short: "List a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			arg := "."
			if len(args) == 1 {
				arg = args[0]
			}
			eps := newEndpoints(g.cfg.Device)
			defer eps.Close()

			ep, err := eps.open(arg)
			if err != nil {
				return err
			}
			entries, err := engine.List(ep.fs, ep.abs())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
			for _, e := range entries {
				if e.Attr.Has(vfs.AttrHidden) && !all {
					continue
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t %s\n", attrString(e), sizeString(e), humanize.Time(e.Modified), displayName(e))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "include hidden entries")
	return cmd
}

func newMkdirCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "mkdir PATH",
		Short: "Create a directory and any missing parents",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			eps := newEndpoints(g.cfg.Device)
			defer eps.Close()

			ep, err := eps.open(args[0])
			if err != nil {
				return err
			}
			return engine.MakeDir(ep.fs, ep.abs())
		},
	}
}

func newChattrCmd(g *globals) *cobra.Command {
	var (
		readOnly bool
		mtime    string
	)
	cmd := &cobra.Command{
		Use:   "chattr PATH",
		Short: "Change the read-only flag and modification time of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eps := newEndpoints(g.cfg.Device)
			defer eps.Close()

			ep, err := eps.open(args[0])
			if err != nil {
				return err
			}
			entry, err := ep.fs.Stat(ep.abs())
			if err != nil {
				return err
			}

			attrs := vfs.Attributes{ReadOnly: entry.Attr.Has(vfs.AttrReadOnly)}
			if cmd.Flags().Changed("readonly") {
				attrs.ReadOnly = readOnly
			}
			if mtime != "" {
				t, err := time.Parse(time.RFC3339, mtime)
				if err != nil {
					return fmt.Errorf("invalid --mtime: %w", err)
				}
				attrs.Modified = t
			}
			return engine.SetAttributes(ep.fs, ep.abs(), attrs)
		},
	}
	cmd.Flags().BoolVar(&readOnly, "readonly", false, "set (or with =false clear) the read-only flag")
	cmd.Flags().StringVar(&mtime, "mtime", "", "modification time (RFC 3339)")
	return cmd
}

func attrString(e vfs.FileEntry) string {
	b := []byte("---")
	if e.IsDir() {
		b[0] = 'd'
	}
	if e.Attr.Has(vfs.AttrSymlink) {
		b[0] = 'l'
	}
	if e.Attr.Has(vfs.AttrReadOnly) {
		b[1] = 'r'
	}
	if e.Attr.Has(vfs.AttrHidden) {
		b[2] = 'h'
	}
	return string(b)
}

func sizeString(e vfs.FileEntry) string {
	if e.IsDir() {
		return "-"
	}
	return humanize.IBytes(uint64(max(e.Size, 0)))
}

func displayName(e vfs.FileEntry) string {
	if e.IsDir() {
		return e.Name + "/"
	}
	return e.Name
}

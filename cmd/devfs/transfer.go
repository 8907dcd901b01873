package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bamsammich/devfs/internal/config"
	"github.com/bamsammich/devfs/internal/engine"
	"github.com/bamsammich/devfs/internal/ui"
)

// excludeFlag is a pflag.Value that appends each --exclude in CLI order.
type excludeFlag struct {
	patterns *[]string
}

var _ pflag.Value = (*excludeFlag)(nil)

func (*excludeFlag) String() string { return "" }
func (*excludeFlag) Type() string   { return "pattern" }

func (f *excludeFlag) Set(val string) error {
	*f.patterns = append(*f.patterns, val)
	return nil
}

// transferFlags are the per-request flags shared by cp, mv, and rm.
type transferFlags struct {
	exclude      []string
	filterFile   string
	overwrite    string
	showStats    string
	bufferSize   string
	bwLimit      string
	ignoreErrors bool
	shared       bool
	noFilters    bool
	tmpFiles     bool
	verify       bool
	batch        bool
}

func (f *transferFlags) register(cmd *cobra.Command, copying bool) {
	flags := cmd.Flags()
	flags.BoolVar(&f.ignoreErrors, "ignore-errors", false, "continue past objects that fail")
	flags.StringVar(&f.showStats, "show-stats", "", "print the summary: always, never or if-error")
	flags.BoolVar(&f.batch, "batch", false, "unattended run: stop on the first error, overwrite, no summary")
	flags.Var(&excludeFlag{patterns: &f.exclude}, "exclude", "leave out objects matching PATTERN (repeatable)")
	if !copying {
		return
	}
	flags.StringVar(&f.filterFile, "filter", "", "read exclude/include rules from FILE")
	flags.StringVar(&f.overwrite, "overwrite", "", "existing files: skip, overwrite or ask")
	flags.StringVar(&f.bufferSize, "buffer-size", "", "copy buffer size (e.g. 1MiB) or auto")
	flags.StringVar(&f.bwLimit, "bwlimit", "", "bandwidth limit (e.g. 10MB)")
	flags.BoolVar(&f.shared, "shared", false, "do not lock destination files while writing")
	flags.BoolVar(&f.noFilters, "no-filters", false, "copy bytes unchanged even if a converter matches")
	flags.BoolVar(&f.tmpFiles, "tmp", false, "write to a temporary file and rename when complete")
	flags.BoolVar(&f.verify, "verify", false, "verify checksums after copy (BLAKE3)")
}

// options applies the flags that were set on top of the config file.
func (f *transferFlags) options(cmd *cobra.Command, cfg config.Config) (engine.Options, config.ShowStats, error) {
	opts, err := cfg.Options()
	if err != nil {
		return opts, 0, err
	}
	mode, err := cfg.ShowStatsMode()
	if err != nil {
		return opts, 0, err
	}

	changed := cmd.Flags().Changed
	if changed("ignore-errors") {
		opts.IgnoreErrors = f.ignoreErrors
	}
	if changed("overwrite") {
		if opts.Overwrite, err = engine.ParseOverwrite(f.overwrite); err != nil {
			return opts, 0, err
		}
	}
	if changed("show-stats") {
		if mode, err = config.ParseShowStats(f.showStats); err != nil {
			return opts, 0, err
		}
	}
	if changed("buffer-size") {
		if opts.BufferSize, err = config.ParseBufferSize(f.bufferSize); err != nil {
			return opts, 0, err
		}
	}
	if changed("bwlimit") {
		if opts.BWLimit, err = config.ParseRate(f.bwLimit); err != nil {
			return opts, 0, err
		}
	}
	if changed("shared") {
		opts.Shared = f.shared
	}
	if changed("no-filters") {
		opts.UseFilters = !f.noFilters
	}
	if changed("tmp") {
		opts.UseTmpFiles = f.tmpFiles
	}
	if changed("verify") {
		opts.Verify = f.verify
	}
	opts.Exclude = append(opts.Exclude, f.exclude...)
	opts.FilterFile = f.filterFile

	if f.batch {
		opts, mode = config.Batch(opts)
	}
	return opts, mode, nil
}

func newTransferCmd(g *globals, move bool) *cobra.Command {
	var f transferFlags
	cmd := &cobra.Command{
		Use:   "cp SOURCE... DEST",
		Short: "Copy files and directories",
		Args:  cobra.MinimumNArgs(2),
	}
	if move {
		cmd.Use = "mv SOURCE... DEST"
		cmd.Short = "Move files and directories"
	}
	f.register(cmd, true)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		opts, mode, err := f.options(cmd, g.cfg)
		if err != nil {
			return err
		}
		reg, err := g.cfg.Registry()
		if err != nil {
			return err
		}

		eps := newEndpoints(g.cfg.Device)
		defer eps.Close()

		srcFS, srcDir, names, err := eps.selection(args[:len(args)-1])
		if err != nil {
			return err
		}
		dst, err := eps.open(args[len(args)-1])
		if err != nil {
			return err
		}

		tc := &engine.TransferContext{
			Src:     srcFS,
			Dst:     dst.fs,
			Sink:    g.sink(mode),
			Filters: reg,
			Options: opts,
		}
		if opts.Overwrite == engine.OverwriteAsk {
			tc.Asker = g.asker()
		}

		res := engine.Transfer(cmd.Context(), tc, engine.Request{
			SrcDir:  srcDir,
			Names:   names,
			DstCwd:  dst.cwd,
			DstExpr: dst.path,
			Move:    move,
		})
		if res.SourcesKept {
			slog.Warn("sources were not deleted", "dir", displayDir(srcDir))
		}
		return finish(cmd.Name(), res)
	}
	return cmd
}

func newRemoveCmd(g *globals) *cobra.Command {
	var f transferFlags
	cmd := &cobra.Command{
		Use:   "rm PATH...",
		Short: "Delete files and directories",
		Args:  cobra.MinimumNArgs(1),
	}
	f.register(cmd, false)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		opts, mode, err := f.options(cmd, g.cfg)
		if err != nil {
			return err
		}
		eps := newEndpoints(g.cfg.Device)
		defer eps.Close()

		fsys, dir, names, err := eps.selection(args)
		if err != nil {
			return err
		}
		tc := &engine.TransferContext{
			Src:     fsys,
			Dst:     fsys,
			Sink:    g.sink(mode),
			Options: opts,
		}
		return finish(cmd.Name(), engine.Remove(cmd.Context(), tc, dir, names))
	}
	return cmd
}

func (g *globals) sink(mode config.ShowStats) engine.ProgressSink {
	return ui.NewSink(ui.Config{
		Out:       os.Stdout,
		Err:       os.Stderr,
		ShowStats: mode,
		Width:     ui.TermWidth(os.Stderr),
		Quiet:     g.quiet,
		Verbose:   g.verbose,
		TTY:       ui.IsTTY(os.Stderr),
	})
}

// asker returns a terminal prompt, or nil when stdin is not a terminal, in
// which case existing files are skipped.
func (*globals) asker() engine.Asker {
	if !ui.IsTTY(os.Stdin) {
		slog.Warn("stdin is not a terminal, existing files will be skipped")
		return nil
	}
	return ui.NewPrompt(os.Stdin, os.Stderr)
}

// finish logs the outcome of a request and converts it to an exit code.
func finish(op string, res engine.Result) error {
	code := exitCode(res)
	switch code {
	case exitOK:
		return nil
	case exitCancelled:
		slog.Warn(op + " cancelled")
	default:
		if res.Err != nil {
			slog.Error(op+" failed", "error", res.Err)
		}
	}
	return &exitError{code: code}
}

func exitCode(res engine.Result) int {
	switch {
	case res.Cancelled():
		return exitCancelled
	case res.Disconnected():
		return exitDisconnected
	case isValidation(res.Err):
		return exitFatal
	case res.Err != nil || res.Stats.Failed():
		return exitPartial
	default:
		return exitOK
	}
}

func isValidation(err error) bool {
	return errors.Is(err, engine.ErrSelfTransfer) ||
		errors.Is(err, engine.ErrInvalidDestination) ||
		errors.Is(err, engine.ErrInvalidName) ||
		errors.Is(err, engine.ErrNothingSelected)
}

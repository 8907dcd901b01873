package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bamsammich/devfs/internal/config"
	"github.com/bamsammich/devfs/internal/ui"
)

var version = "dev"

// Exit codes.
const (
	exitOK           = 0
	exitPartial      = 1
	exitFatal        = 2
	exitDisconnected = 3
	exitCancelled    = 130
)

func main() {
	os.Exit(run())
}

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}

// globals holds the persistent flags and what PersistentPreRunE derives
// from them.
type globals struct {
	verbose    bool
	quiet      bool
	logFile    string
	configFile string

	cfg     config.Config
	logSink *os.File
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g := &globals{}
	rootCmd := &cobra.Command{
		Use:   "devfs",
		Short: "Browse and transfer files between this machine and a device",
		Long: `devfs lists, copies, moves, and deletes files on a device reached over
SSH/SFTP, or on local paths. A path of the form [user@]host:path refers to the
device; anything else is local.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return g.setup(cmd)
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&g.quiet, "quiet", "q", false, "suppress all output except errors")
	rootCmd.PersistentFlags().StringVar(&g.logFile, "log", "", "write structured JSON log to FILE")
	rootCmd.PersistentFlags().StringVar(&g.configFile, "config", "", "config file (default: $XDG_CONFIG_HOME/devfs/config.toml)")

	rootCmd.AddCommand(
		newTransferCmd(g, false),
		newTransferCmd(g, true),
		newRemoveCmd(g),
		newListCmd(g),
		newMkdirCmd(g),
		newChattrCmd(g),
		newDocsCmd(),
	)

	err := rootCmd.ExecuteContext(ctx)
	if g.logSink != nil {
		g.logSink.Close()
	}
	if err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			return exitErr.code
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitFatal
	}
	return exitOK
}

// setup configures logging and loads the config file.
func (g *globals) setup(_ *cobra.Command) error {
	logLevel := slog.LevelInfo
	if g.verbose {
		logLevel = slog.LevelDebug
	} else if g.quiet {
		logLevel = slog.LevelWarn
	}
	var logHandler slog.Handler = ui.NewConsoleHandler(os.Stderr, logLevel, ui.IsTTY(os.Stderr))
	if g.logFile != "" {
		lf, err := os.Create(g.logFile)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		g.logSink = lf
		jsonHandler := slog.NewJSONHandler(lf, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
		logHandler = ui.NewMultiHandler(logHandler, jsonHandler)
	}
	slog.SetDefault(slog.New(logHandler))

	var err error
	if g.configFile != "" {
		g.cfg, err = config.LoadFile(g.configFile)
	} else {
		g.cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	return nil
}

// Package main provides the richmd command line renderer.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/euforicio/richmd/internal/buildinfo"
	"github.com/euforicio/richmd/internal/config"
)

// cfg is bound to the persistent flags; commands call resolveConfig before
// reading it.
var cfg = config.Default()

var rootCmd = &cobra.Command{
	Use:           "richmd",
	Short:         "Render markdown with diagrams, highlighting and callouts",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	// A missing .env is the common case.
	_ = godotenv.Load()

	rootCmd.Version = buildinfo.Summary()
	config.RegisterFlags(rootCmd.PersistentFlags(), &cfg)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(stylesCmd)
	rootCmd.AddCommand(versionCmd)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	cancel()
	if err != nil {
		color.New(color.FgRed, color.Bold).Fprint(os.Stderr, "error: ")
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

// resolveConfig layers file, environment and flags into cfg and validates it.
func resolveConfig(cmd *cobra.Command) error {
	if err := config.Resolve(cmd.Flags(), &cfg); err != nil {
		return err
	}
	return config.Finalize(&cfg)
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}
	// stdout carries the rendered document.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	logger = logger.With("app", "richmd")
	slog.SetDefault(logger)
	return logger
}

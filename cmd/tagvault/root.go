package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/tagvault/internal/telemetry"
)

var (
	verbose    bool
	configPath string

	shutdownTracing = func(context.Context) error { return nil }
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tagvault",
	Short: "A crash tolerant document store for 1K contactless tags",
	Long: `tagvault keeps one small document on a 1K contactless tag.
Writes rotate across three banks and commit with a single ledger block, so pulling
the tag away mid-write never loses the previous document.

Tag images are raw 1024 byte dumps (.mfd).`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)

		cfg, err := telemetry.LoadConfig()
		if err != nil {
			fatal("Error reading telemetry config", err)
		}
		shutdown, err := telemetry.Setup(cmd.Context(), "tagvault", cfg)
		if err != nil {
			slog.Warn("tracing disabled", "error", err)
			return
		}
		shutdownTracing = shutdown
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if err := shutdownTracing(context.Background()); err != nil {
			slog.Warn("failed to flush traces", "error", err)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (TAGVAULT_* environment variables override it)")
}

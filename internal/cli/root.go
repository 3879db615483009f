// Package cli provides the command-line interface for songlake.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/songlake/internal/config"
	"github.com/leapstack-labs/songlake/internal/engine"

	// registers the duckdb engine adapter
	_ "github.com/leapstack-labs/songlake/pkg/adapters/duckdb"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "songlake",
		Short: "songlake - song play star schema builder",
		Long: `songlake reads the song catalog and user activity logs, derives the
songs, artists, users, time and songplays tables, and writes them as
partitioned Parquet under the configured output location.

Configuration is read from songlake.yaml (or the file named by
SONGLAKE_CONFIG), SONGLAKE_* environment variables and DATA_LOCATION.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPipeline(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	return rootCmd
}

// runPipeline loads configuration, runs the pipeline once and prints the summary.
func runPipeline(ctx context.Context, stdout, stderr io.Writer) error {
	cfg, err := config.Load("")
	if err != nil {
		return err
	}

	logger, err := newLogger(stderr, cfg.Log)
	if err != nil {
		return err
	}
	if cfg.ConfigFile != "" {
		logger.Debug("using config file", "path", cfg.ConfigFile)
	}

	engCfg, err := engine.ConfigFrom(cfg)
	if err != nil {
		return err
	}
	engCfg.Logger = logger

	if err := ensureStateDir(engCfg.StatePath); err != nil {
		return err
	}

	eng, err := engine.New(engCfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := eng.Close(); cerr != nil {
			logger.Warn("failed to close engine", "error", cerr.Error())
		}
	}()

	run, runErr := eng.Run(ctx)
	if run != nil {
		renderSummary(stdout, run)
	}
	return runErr
}

func ensureStateDir(statePath string) error {
	if statePath == ":memory:" {
		return nil
	}
	stateDir := filepath.Dir(statePath)
	if stateDir != "." && stateDir != "" {
		if err := os.MkdirAll(stateDir, 0o750); err != nil {
			return fmt.Errorf("failed to create state directory: %w", err)
		}
	}
	return nil
}

// Execute runs the root command and returns the process exit code.
// SIGINT and SIGTERM cancel the run.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "Error: run cancelled")
			return 1
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

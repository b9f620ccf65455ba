package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/nvandessel/tracelearn/internal/config"
	"github.com/nvandessel/tracelearn/internal/logging"
	"github.com/nvandessel/tracelearn/internal/network"
	"github.com/spf13/cobra"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tracelearn",
		Short: "Reward-guided trajectory sampling for reaction networks",
		Long: `tracelearn samples trajectories of a discrete reaction network from its
initial state until the target is reached or no transition is enabled.

Transition choice is weighted by a reward table that is adapted after every
trajectory, biasing later samples toward likelier paths to the target.`,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.tracelearn/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: info, debug, or trace")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newNetworkCmd(),
		newConfigCmd(),
		newRunsCmd(),
	)

	return rootCmd
}

// loadConfig resolves the effective configuration for cmd, applying the
// global --log-level flag on top of file and environment settings.
func loadConfig(cmd *cobra.Command) (*config.TracelearnConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Resolve(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command, cfg *config.TracelearnConfig) *slog.Logger {
	return logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())
}

// loadNetwork returns the network at path, or the reference network when
// path is empty.
func loadNetwork(path string) (*network.Network, error) {
	if path == "" {
		return network.Reference(), nil
	}
	return network.Load(path)
}

// useColor reports whether console output to cmd should be colored.
func useColor(cmd *cobra.Command, noColor bool) bool {
	if noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := cmd.OutOrStdout().(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

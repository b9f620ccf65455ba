package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/nvandessel/tracelearn/internal/config"
	"github.com/nvandessel/tracelearn/internal/logging"
	"github.com/nvandessel/tracelearn/internal/store"
	"github.com/nvandessel/tracelearn/internal/tracelog"
	"github.com/nvandessel/tracelearn/internal/training"
	"github.com/nvandessel/tracelearn/internal/visualization"
	"github.com/spf13/cobra"
)

// chartTitle heads the probability history chart.
const chartTitle = "Learning History"

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <count>",
		Short: "Sample trajectories and adapt the reward table",
		Long: `Sample <count> trajectories of the network, adapting transition rewards
after each one.

Every trajectory is appended to the trace log as it completes. When the run
finishes, the log10 probability history is written as a chart and the
cumulative and mean trajectory probabilities are printed.

Examples:
  tracelearn run 1000
  tracelearn run 25000 --seed 42 --chart history.json
  tracelearn run 500 --network nets/toggle.yaml --archive ~/.tracelearn/runs.db`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.ExactArgs(1)(cmd, args); err != nil {
				return err
			}
			_, err := parseCount(args[0])
			return err
		},
		RunE: runTraining,
	}

	cmd.Flags().Uint64("seed", 0, "Random seed (0 picks a fresh seed)")
	cmd.Flags().Int("max-steps", 0, "Maximum steps per trajectory (0 = unlimited)")
	cmd.Flags().String("network", "", "Network definition YAML (default: built-in reference network)")
	cmd.Flags().String("trace-log", "", "Trajectory log path (default traces.txt)")
	cmd.Flags().String("chart", "", "History chart path, .html or .json (default learning_history.html)")
	cmd.Flags().String("archive", "", "SQLite run archive path (default: archiving disabled)")
	cmd.Flags().Bool("no-color", false, "Disable colored output")

	return cmd
}

func parseCount(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("<count> must be a positive integer, got %q", arg)
	}
	return n, nil
}

// applyRunFlags overrides cfg with the run flags the user set explicitly.
func applyRunFlags(cmd *cobra.Command, cfg *config.TracelearnConfig) {
	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Sampling.Seed, _ = flags.GetUint64("seed")
	}
	if flags.Changed("max-steps") {
		cfg.Sampling.MaxSteps, _ = flags.GetInt("max-steps")
	}
	if flags.Changed("network") {
		cfg.Network, _ = flags.GetString("network")
	}
	if flags.Changed("trace-log") {
		cfg.Output.TraceLog, _ = flags.GetString("trace-log")
	}
	if flags.Changed("chart") {
		cfg.Output.Chart, _ = flags.GetString("chart")
	}
	if flags.Changed("archive") {
		cfg.Output.Archive, _ = flags.GetString("archive")
	}
}

func runTraining(cmd *cobra.Command, args []string) error {
	count, err := parseCount(args[0])
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyRunFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := newLogger(cmd, cfg)
	out := cmd.OutOrStdout()
	noColor, _ := cmd.Flags().GetBool("no-color")

	net, err := loadNetwork(cfg.Network)
	if err != nil {
		return err
	}
	net.Describe(out, useColor(cmd, noColor))

	traceLog, err := tracelog.Create(cfg.Output.TraceLog, time.Now())
	if err != nil {
		return err
	}
	defer traceLog.Close()

	var events *logging.EventLog
	if dir, err := store.DataDir(); err == nil {
		events = logging.NewEventLog(dir, cfg.Logging.Level)
		defer events.Close()
	}

	var archive store.RunStore
	if cfg.Output.Archive != "" {
		a, err := store.Open(cfg.Output.Archive)
		if err != nil {
			return fmt.Errorf("failed to open run archive: %w", err)
		}
		defer a.Close()
		archive = a
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	notifySignals(sigCh)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("interrupted, stopping after current trajectory", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	summary, err := training.Run(ctx, training.Options{
		Network:  net,
		Count:    count,
		Seed:     cfg.Sampling.Seed,
		MaxSteps: cfg.Sampling.MaxSteps,
		Learning: cfg.Learning,
		Log:      traceLog,
		Archive:  archive,
		Out:      out,
		Logger:   logger,
		Events:   events,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) && summary != nil {
			return fmt.Errorf("run interrupted after %d of %d traces (partial log in %s)", summary.Count, count, traceLog.Path())
		}
		return fmt.Errorf("training failed: %w", err)
	}

	if err := traceLog.Close(); err != nil {
		return fmt.Errorf("closing trajectory log: %w", err)
	}

	chart := cfg.Output.Chart
	if err := visualization.WriteFile(chart, visualization.FormatForPath(chart), summary.History, chartTitle); err != nil {
		return fmt.Errorf("failed to write chart: %w", err)
	}

	fmt.Fprintf(out, "Learning history saved to %s\n", chart)
	fmt.Fprintf(out, "Traces saved to %s\n", traceLog.Path())
	if archive != nil {
		fmt.Fprintf(out, "Run %s archived to %s\n", summary.RunID, cfg.Output.Archive)
	}
	logger.Debug("run complete", "seed", summary.Seed, "outcomes", fmt.Sprint(summary.Outcomes))
	summary.Report(out)
	return nil
}

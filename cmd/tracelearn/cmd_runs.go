package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nvandessel/tracelearn/internal/store"
	"github.com/nvandessel/tracelearn/internal/training"
	"github.com/spf13/cobra"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List archived training runs",
		Long: `List the runs recorded in the run archive, newest first.

The archive is the --archive path, the configured output.archive, or
~/.tracelearn/runs.db.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, err := openArchive(cmd)
			if err != nil {
				return err
			}
			defer archive.Close()

			runs, err := archive.ListRuns(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				return json.NewEncoder(out).Encode(runs)
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No archived runs.")
				return nil
			}
			for _, r := range runs {
				status := "running"
				if r.Finished() {
					status = "mean " + training.FormatProbability(r.Mean)
				}
				fmt.Fprintf(out, "%s  %s  %-10s %6d traces  seed %-20d %s\n",
					r.ID, r.StartedAt.Local().Format(time.DateTime), r.Network, r.TrajectoryCount, r.Seed, status)
			}
			return nil
		},
	}

	cmd.PersistentFlags().String("archive", "", "SQLite run archive path")
	cmd.AddCommand(newRunsShowCmd(), newRunsPruneCmd())

	return cmd
}

func newRunsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one archived run and its trajectories",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, err := openArchive(cmd)
			if err != nil {
				return err
			}
			defer archive.Close()

			ctx := cmd.Context()
			info, err := archive.GetRun(ctx, args[0])
			if err != nil {
				return err
			}
			recs, err := archive.Trajectories(ctx, info.ID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				return json.NewEncoder(out).Encode(map[string]interface{}{
					"run":          info,
					"trajectories": recs,
				})
			}

			fmt.Fprintf(out, "Run:        %s\n", info.ID)
			fmt.Fprintf(out, "Network:    %s\n", info.Network)
			fmt.Fprintf(out, "Seed:       %d\n", info.Seed)
			fmt.Fprintf(out, "Started:    %s\n", info.StartedAt.Local().Format(time.DateTime))
			if info.Finished() {
				fmt.Fprintf(out, "Finished:   %s\n", info.FinishedAt.Local().Format(time.DateTime))
				fmt.Fprintf(out, "Cumulative: %s\n", training.FormatProbability(info.Cumulative))
				fmt.Fprintf(out, "Mean:       %s\n", training.FormatProbability(info.Mean))
			}
			fmt.Fprintf(out, "Traces:     %d of %d\n", len(recs), info.TrajectoryCount)
			for _, rec := range recs {
				fmt.Fprintf(out, "  %4d %-10s %5d steps  %s\n",
					rec.Index, rec.Outcome, rec.Steps, training.FormatProbability(rec.Probability))
			}
			return nil
		},
	}
}

func newRunsPruneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old archived runs",
		Long: `Delete archived runs that no retention rule keeps. A run survives if it
is among the --keep newest, started within --max-age, or fits in the
--max-traces budget counted from the newest run.

Examples:
  tracelearn runs prune --keep 10
  tracelearn runs prune --max-age 30d
  tracelearn runs prune --keep 5 --max-age 2w`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, err := retentionPolicy(cmd)
			if err != nil {
				return err
			}

			archive, err := openArchive(cmd)
			if err != nil {
				return err
			}
			defer archive.Close()

			deleted, err := store.Prune(cmd.Context(), archive, policy)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				return json.NewEncoder(out).Encode(map[string]interface{}{"deleted": deleted})
			}
			fmt.Fprintf(out, "Deleted %d run(s).\n", len(deleted))
			return nil
		},
	}

	cmd.Flags().Int("keep", 0, "Keep this many newest runs")
	cmd.Flags().String("max-age", "", "Keep runs younger than this (e.g. 720h, 30d, 2w)")
	cmd.Flags().Int("max-traces", 0, "Keep newest runs up to this many trajectories in total")

	return cmd
}

// retentionPolicy builds the union of the retention rules set on cmd.
func retentionPolicy(cmd *cobra.Command) (store.RetentionPolicy, error) {
	var policies []store.RetentionPolicy

	if cmd.Flags().Changed("keep") {
		keep, _ := cmd.Flags().GetInt("keep")
		if keep < 0 {
			return nil, fmt.Errorf("--keep must be non-negative, got %d", keep)
		}
		policies = append(policies, &store.CountPolicy{MaxCount: keep})
	}
	if s, _ := cmd.Flags().GetString("max-age"); s != "" {
		age, err := store.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("--max-age: %w", err)
		}
		policies = append(policies, &store.AgePolicy{MaxAge: age})
	}
	if cmd.Flags().Changed("max-traces") {
		n, _ := cmd.Flags().GetInt("max-traces")
		policies = append(policies, &store.TrajectoryPolicy{MaxTrajectories: n})
	}

	if len(policies) == 0 {
		return nil, fmt.Errorf("specify at least one of --keep, --max-age, --max-traces")
	}
	return &store.CompositePolicy{Policies: policies}, nil
}

// openArchive opens the archive named by --archive, the config, or the
// default path, in that order.
func openArchive(cmd *cobra.Command) (*store.SQLiteRunStore, error) {
	path, _ := cmd.Flags().GetString("archive")
	if path == "" {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return nil, err
		}
		path = cfg.Output.Archive
	}
	if path == "" {
		var err error
		if path, err = store.DefaultPath(); err != nil {
			return nil, err
		}
	}

	archive, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open run archive: %w", err)
	}
	return archive, nil
}

// Package training drives repeated sample/adjust cycles over one network:
// each trajectory is sampled with the current reward table, persisted, and
// then fed back into the reward adaptation.
package training

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/nvandessel/tracelearn/internal/learning"
	"github.com/nvandessel/tracelearn/internal/logging"
	"github.com/nvandessel/tracelearn/internal/network"
	"github.com/nvandessel/tracelearn/internal/sampler"
	"github.com/nvandessel/tracelearn/internal/store"
	"github.com/nvandessel/tracelearn/internal/tracelog"
)

const (
	// quietAbove is the run size from which progress is only printed
	// every progressEvery trajectories.
	quietAbove    = 1000
	progressEvery = 500
)

// Options configures a training run.
type Options struct {
	Network *network.Network

	// Count is the number of trajectories to sample. Must be positive.
	Count int

	// Seed seeds the run's random source. Zero picks a fresh seed, reported
	// back in Summary.Seed.
	Seed uint64

	// MaxSteps bounds each trajectory. Zero means unbounded.
	MaxSteps int

	// Learning holds the adaptation tunables. The zero value selects
	// learning.DefaultConfig().
	Learning learning.Config

	// Log receives one line per trajectory. Optional.
	Log *tracelog.Writer

	// Archive records the run and its trajectories. Optional.
	Archive store.RunStore

	// Out receives the console progress lines. Nil discards them.
	Out io.Writer

	// Logger receives run-level records and, at trace level, every step.
	Logger *slog.Logger

	// Events receives one "adjustment" record per trajectory. A nil
	// EventLog discards them.
	Events *logging.EventLog
}

// Summary holds the aggregate results of a run.
type Summary struct {
	RunID string
	Seed  uint64

	// Count is the number of trajectories actually completed.
	Count   int
	History []float64

	// Cumulative and Mean treat every trajectory as distinct, which they
	// need not be.
	Cumulative float64
	Mean       float64

	Outcomes map[sampler.Outcome]int

	// Rewards is the final reward table in network order.
	Rewards []learning.Entry
}

// Run samples opts.Count trajectories, adapting the reward table after each.
// If ctx is cancelled the loop stops before the next trajectory and the
// partial summary is returned together with ctx.Err().
func Run(ctx context.Context, opts Options) (*Summary, error) {
	if opts.Network == nil {
		return nil, errors.New("no network")
	}
	if opts.Count <= 0 {
		return nil, fmt.Errorf("trajectory count must be positive, got %d", opts.Count)
	}
	if opts.Learning == (learning.Config{}) {
		opts.Learning = learning.DefaultConfig()
	}
	if err := opts.Learning.Validate(); err != nil {
		return nil, fmt.Errorf("learning config: %w", err)
	}
	if opts.Seed == 0 {
		opts.Seed = rand.Uint64()
	}
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	fmt.Fprintf(out, "Generating %d traces...\n", opts.Count)
	state := learning.NewState(opts.Network, opts.Learning)
	fmt.Fprintln(out, "Learning initialized.")

	summary := &Summary{
		Seed:     opts.Seed,
		Outcomes: make(map[sampler.Outcome]int),
	}

	if opts.Archive != nil {
		id, err := opts.Archive.BeginRun(ctx, store.RunInfo{
			Network:         opts.Network.Name,
			TrajectoryCount: opts.Count,
			Seed:            opts.Seed,
		})
		if err != nil {
			return nil, fmt.Errorf("archiving run: %w", err)
		}
		summary.RunID = id
	}

	logger.Info("training started",
		"network", opts.Network.Name,
		"count", opts.Count,
		"seed", opts.Seed,
		"run_id", summary.RunID)

	rng := sampler.NewRand(opts.Seed)
	sampleOpts := sampler.Options{MaxSteps: opts.MaxSteps, Logger: logger}

	// A sampled trajectory is always persisted and adjusted. Cancellation
	// is only observed at the top of the loop.
	persistCtx := context.WithoutCancel(ctx)

	var runErr error
	for i := 0; i < opts.Count; i++ {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		res := sampler.Sample(opts.Network, state.Rewards, rng, sampleOpts)

		if opts.Log != nil {
			if err := opts.Log.Append(res.Trajectory); err != nil {
				runErr = err
				break
			}
		}
		if opts.Archive != nil {
			rec := store.TrajectoryRecord{
				Index:       i,
				Probability: res.Probability,
				Steps:       len(res.Trajectory),
				Outcome:     res.Outcome.String(),
				Path:        res.Trajectory.String(),
			}
			if err := opts.Archive.RecordTrajectory(persistCtx, summary.RunID, rec); err != nil {
				runErr = fmt.Errorf("archiving trajectory %d: %w", i, err)
				break
			}
		}

		if opts.Count < quietAbove || i%progressEvery == 0 {
			fmt.Fprintf(out, "Trace %4d Probability: %s\n", i, FormatProbability(res.Probability))
		}

		adj := state.Adjust(res.Trajectory, res.Probability)
		summary.Outcomes[res.Outcome]++

		logger.Debug("trajectory",
			"index", i,
			"steps", len(res.Trajectory),
			"outcome", res.Outcome.String(),
			"final", []uint64(res.Final),
			"probability", res.Probability,
			"improvement", adj.Improvement)
		opts.Events.Record("adjustment", map[string]any{
			"index":        i,
			"outcome":      res.Outcome.String(),
			"steps":        len(res.Trajectory),
			"probability":  res.Probability,
			"baseline":     adj.Baseline,
			"improvement":  adj.Improvement,
			"penalty":      adj.Penalty,
			"renormalized": adj.Renormalized,
			"total":        adj.Total,
		})
	}

	summary.History = state.History
	summary.Count = len(state.History)
	summary.Rewards = state.Rewards.Entries()
	for _, p := range summary.History {
		summary.Cumulative += p
	}
	if summary.Count > 0 {
		summary.Mean = summary.Cumulative / float64(summary.Count)
	}

	if opts.Archive != nil {
		// Record the partial statistics even when the run was cancelled.
		if err := opts.Archive.FinishRun(persistCtx, summary.RunID, summary.Cumulative, summary.Mean); err != nil && runErr == nil {
			runErr = fmt.Errorf("finishing archived run: %w", err)
		}
	}

	logger.Info("training finished",
		"completed", summary.Count,
		"cumulative", summary.Cumulative,
		"mean", summary.Mean)

	return summary, runErr
}

// Report writes the closing statistics of a run to w.
func (s *Summary) Report(w io.Writer) {
	fmt.Fprintln(w, "Learning completed.")
	fmt.Fprintf(w, "If all traces were unique, the cumulative probability is %s\n", FormatProbability(s.Cumulative))
	fmt.Fprintf(w, "If all traces were unique, the average probability is   %s\n", FormatProbability(s.Mean))
}

// FormatProbability renders p in scientific notation with four decimals and
// a bare exponent, e.g. 1.2500e-7 or 0.0000e0.
func FormatProbability(p float64) string {
	s := fmt.Sprintf("%.4e", p)
	i := strings.IndexByte(s, 'e')
	if i < 0 {
		return s // NaN, Inf
	}
	mant, exp := s[:i], s[i+1:]
	sign := ""
	switch exp[0] {
	case '-':
		sign = "-"
		exp = exp[1:]
	case '+':
		exp = exp[1:]
	}
	exp = strings.TrimLeft(exp, "0")
	if exp == "" {
		exp, sign = "0", ""
	}
	return mant + "e" + sign + exp
}

// Package store archives training runs: one row per run and one row per
// sampled trajectory. Reward weights are never stored.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrRunNotFound is returned when a run ID is not in the archive.
var ErrRunNotFound = errors.New("run not found")

// RunInfo describes one training run.
type RunInfo struct {
	ID              string     `json:"id"`
	Network         string     `json:"network"`
	TrajectoryCount int        `json:"trajectory_count"`
	Seed            uint64     `json:"seed"`
	StartedAt       time.Time  `json:"started_at"`
	FinishedAt      *time.Time `json:"finished_at,omitempty"` // nil while the run is in progress
	Cumulative      float64    `json:"cumulative"`
	Mean            float64    `json:"mean"`
}

// Finished reports whether FinishRun has been recorded for the run.
func (r RunInfo) Finished() bool {
	return r.FinishedAt != nil
}

// TrajectoryRecord is one sampled trajectory of a run.
type TrajectoryRecord struct {
	Index       int     `json:"index"`
	Probability float64 `json:"probability"`
	Steps       int     `json:"steps"`
	Outcome     string  `json:"outcome"` // "target", "deadlock", "step-limit"
	Path        string  `json:"path"`    // space-separated transition names
}

// RunStore defines the interface for archiving runs.
type RunStore interface {
	// BeginRun registers a new run and returns its ID. If info.ID is empty
	// a new one is generated. StartedAt defaults to now.
	BeginRun(ctx context.Context, info RunInfo) (string, error)

	// RecordTrajectory appends one trajectory to a run.
	RecordTrajectory(ctx context.Context, runID string, rec TrajectoryRecord) error

	// FinishRun stamps the run's finish time and summary statistics.
	FinishRun(ctx context.Context, runID string, cumulative, mean float64) error

	GetRun(ctx context.Context, runID string) (*RunInfo, error)

	// ListRuns returns every run, most recently started first.
	ListRuns(ctx context.Context) ([]RunInfo, error)

	// Trajectories returns a run's trajectories in index order.
	Trajectories(ctx context.Context, runID string) ([]TrajectoryRecord, error)

	// DeleteRun removes a run and its trajectories.
	DeleteRun(ctx context.Context, runID string) error

	Close() error
}

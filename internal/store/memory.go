package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryRun struct {
	info         RunInfo
	seq          int
	trajectories []TrajectoryRecord
	indexes      map[int]struct{}
}

// MemoryRunStore implements RunStore for testing and for runs that should
// not touch disk.
type MemoryRunStore struct {
	mu   sync.RWMutex
	runs map[string]*memoryRun
	seq  int
}

// NewMemoryRunStore creates an empty in-memory archive.
func NewMemoryRunStore() *MemoryRunStore {
	return &MemoryRunStore{runs: make(map[string]*memoryRun)}
}

// BeginRun registers a run.
func (s *MemoryRunStore) BeginRun(ctx context.Context, info RunInfo) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if info.ID == "" {
		info.ID = uuid.New().String()
	}
	if _, exists := s.runs[info.ID]; exists {
		return "", fmt.Errorf("run %s already exists", info.ID)
	}
	if info.StartedAt.IsZero() {
		info.StartedAt = time.Now()
	}
	info.FinishedAt = nil
	info.Cumulative, info.Mean = 0, 0

	s.seq++
	s.runs[info.ID] = &memoryRun{info: info, seq: s.seq, indexes: make(map[int]struct{})}
	return info.ID, nil
}

// RecordTrajectory appends a trajectory to a run.
func (s *MemoryRunStore) RecordTrajectory(ctx context.Context, runID string, rec TrajectoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[runID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if _, dup := run.indexes[rec.Index]; dup {
		return fmt.Errorf("trajectory %d already recorded for run %s", rec.Index, runID)
	}
	run.indexes[rec.Index] = struct{}{}
	run.trajectories = append(run.trajectories, rec)
	return nil
}

// FinishRun stamps a run as finished.
func (s *MemoryRunStore) FinishRun(ctx context.Context, runID string, cumulative, mean float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[runID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	now := time.Now()
	run.info.FinishedAt = &now
	run.info.Cumulative = cumulative
	run.info.Mean = mean
	return nil
}

// GetRun returns a copy of one run.
func (s *MemoryRunStore) GetRun(ctx context.Context, runID string) (*RunInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[runID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	info := run.info
	return &info, nil
}

// ListRuns returns all runs, newest first.
func (s *MemoryRunStore) ListRuns(ctx context.Context) ([]RunInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]*memoryRun, 0, len(s.runs))
	for _, r := range s.runs {
		runs = append(runs, r)
	}
	slices.SortFunc(runs, func(a, b *memoryRun) int {
		if c := b.info.StartedAt.Compare(a.info.StartedAt); c != 0 {
			return c
		}
		return b.seq - a.seq
	})

	out := make([]RunInfo, len(runs))
	for i, r := range runs {
		out[i] = r.info
	}
	return out, nil
}

// Trajectories returns a run's trajectories ordered by index.
func (s *MemoryRunStore) Trajectories(ctx context.Context, runID string) ([]TrajectoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[runID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	out := slices.Clone(run.trajectories)
	if out == nil {
		out = make([]TrajectoryRecord, 0)
	}
	slices.SortFunc(out, func(a, b TrajectoryRecord) int { return a.Index - b.Index })
	return out, nil
}

// DeleteRun removes a run and its trajectories.
func (s *MemoryRunStore) DeleteRun(ctx context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[runID]; !ok {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	delete(s.runs, runID)
	return nil
}

// Close is a no-op.
func (s *MemoryRunStore) Close() error {
	return nil
}

var (
	_ RunStore = (*MemoryRunStore)(nil)
	_ RunStore = (*SQLiteRunStore)(nil)
)

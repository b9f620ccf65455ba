package store

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// RetentionPolicy decides which archived runs to keep. Apply receives runs
// newest-first, as ListRuns returns them.
type RetentionPolicy interface {
	Apply(runs []RunInfo) (keep []RunInfo)
}

// CountPolicy keeps the N most recent runs.
type CountPolicy struct {
	MaxCount int
}

// Apply keeps the first MaxCount runs.
func (p *CountPolicy) Apply(runs []RunInfo) []RunInfo {
	if len(runs) <= p.MaxCount {
		return runs
	}
	return runs[:max(p.MaxCount, 0)]
}

// AgePolicy keeps runs started within MaxAge.
type AgePolicy struct {
	MaxAge time.Duration
}

// Apply keeps runs whose StartedAt is within MaxAge of now.
func (p *AgePolicy) Apply(runs []RunInfo) []RunInfo {
	cutoff := time.Now().Add(-p.MaxAge)
	var keep []RunInfo
	for _, r := range runs {
		if r.StartedAt.After(cutoff) {
			keep = append(keep, r)
		}
	}
	return keep
}

// TrajectoryPolicy keeps runs, newest first, until their combined
// trajectory count would exceed MaxTrajectories. The newest run is always kept.
type TrajectoryPolicy struct {
	MaxTrajectories int
}

// Apply keeps runs until adding the next would exceed the budget.
func (p *TrajectoryPolicy) Apply(runs []RunInfo) []RunInfo {
	var keep []RunInfo
	total := 0
	for _, r := range runs {
		if total+r.TrajectoryCount > p.MaxTrajectories && len(keep) > 0 {
			break
		}
		keep = append(keep, r)
		total += r.TrajectoryCount
	}
	return keep
}

// CompositePolicy keeps a run if ANY sub-policy wants it (union).
type CompositePolicy struct {
	Policies []RetentionPolicy
}

// Apply returns the union of runs kept by any sub-policy, in input order.
func (p *CompositePolicy) Apply(runs []RunInfo) []RunInfo {
	kept := make(map[string]bool)
	for _, policy := range p.Policies {
		for _, r := range policy.Apply(runs) {
			kept[r.ID] = true
		}
	}

	var result []RunInfo
	for _, r := range runs {
		if kept[r.ID] {
			result = append(result, r)
		}
	}
	return result
}

// Prune deletes every archived run the policy does not keep and returns
// the deleted run IDs.
func Prune(ctx context.Context, s RunStore, policy RetentionPolicy) (deleted []string, err error) {
	runs, err := s.ListRuns(ctx)
	if err != nil {
		return nil, err
	}

	keepSet := make(map[string]bool)
	for _, r := range policy.Apply(runs) {
		keepSet[r.ID] = true
	}

	for _, r := range runs {
		if keepSet[r.ID] {
			continue
		}
		if err := s.DeleteRun(ctx, r.ID); err != nil {
			return deleted, fmt.Errorf("removing run %s: %w", r.ID, err)
		}
		deleted = append(deleted, r.ID)
	}
	return deleted, nil
}

// ParseDuration parses duration strings like "30d", "2w", "720h".
func ParseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("empty duration string")
	}

	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}

	// Custom suffixes: d (days), w (weeks)
	if len(s) < 2 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}
	suffix := s[len(s)-1]
	num, err := strconv.Atoi(s[:len(s)-1])
	if err != nil {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	switch suffix {
	case 'd':
		return time.Duration(num) * 24 * time.Hour, nil
	case 'w':
		return time.Duration(num) * 7 * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unknown duration suffix %q in %q", string(suffix), s)
	}
}

package learning

import (
	"math"

	"github.com/nvandessel/tracelearn/internal/network"
)

const (
	// historyFloor bounds probabilities before taking log10 for the baseline.
	historyFloor = 1e-300

	// improvementFloor bounds the current probability in the improvement ratio.
	improvementFloor = 1e-100
)

// Adjustment describes one reward update, for tracing.
type Adjustment struct {
	Baseline     float64 `json:"baseline"`
	Improvement  float64 `json:"improvement"`
	Penalty      float64 `json:"penalty"`
	Renormalized bool    `json:"renormalized"`
	Total        float64 `json:"total"`
}

// Adjust reweights the reward table after a completed trajectory with the
// given probability estimate, appends the probability to the history, and
// renormalizes the table if its total grew past cfg.MaxTotal.
//
// The improvement signal compares log10(probability) with a baseline mixed
// from recent history and the current trajectory. Exactly one history entry
// is appended per call, including for empty trajectories.
func (s *State) Adjust(tr network.Trajectory, probability float64) Adjustment {
	baseline := s.baseline(probability)
	improvement := s.improvement(probability, baseline)
	penalty := s.lengthPenalty(len(tr))
	improvement -= penalty

	s.reinforce(tr, improvement)
	s.History = append(s.History, probability)

	renormalized := s.renormalize()

	return Adjustment{
		Baseline:     baseline,
		Improvement:  improvement,
		Penalty:      penalty,
		Renormalized: renormalized,
		Total:        s.Rewards.Total(),
	}
}

// baseline returns the log10-scale reference the current probability is
// judged against, or 0 while the history is still short.
func (s *State) baseline(probability float64) float64 {
	n := len(s.History)
	if n < s.cfg.MinHistory {
		return 0
	}

	k := min(n/3, s.cfg.BaselineWindow)
	if k <= 0 {
		return 0
	}

	var sum float64
	for _, p := range s.History[n-k:] {
		sum += math.Log10(math.Max(p, historyFloor))
	}
	recent := sum / float64(k)

	current := math.Log10(math.Max(probability, historyFloor))
	return s.cfg.RecentWeight*recent + (1-s.cfg.RecentWeight)*current
}

// improvement turns a probability and baseline into the reward signal.
// Both are log-scale negatives, so a trajectory likelier than the baseline
// yields a ratio below 1 and an unlikelier one a ratio above 1.
func (s *State) improvement(probability, baseline float64) float64 {
	switch {
	case probability == 0:
		return s.cfg.ZeroImprovement
	case baseline == 0:
		return 0
	default:
		return math.Max(0, math.Log10(math.Max(probability, improvementFloor))/baseline)
	}
}

// lengthPenalty penalizes trajectories longer than the historical mean
// length. The mean is taken over the history using the current length for
// every entry, so it equals the current length and the penalty is zero.
func (s *State) lengthPenalty(length int) float64 {
	n := len(s.History)
	if n < s.cfg.MinHistory {
		return 0
	}

	var sum float64
	for range s.History {
		sum += float64(length)
	}
	mean := sum / float64(n)
	if mean == 0 {
		return 0
	}

	return s.cfg.LengthPenalty * math.Max(0, (float64(length)-mean)/mean)
}

// reinforce applies the improvement to every transition that occurs in the
// trajectory and the standing bonus to the dependency set.
func (s *State) reinforce(tr network.Trajectory, improvement float64) {
	exp := s.cfg.LossExponent
	if improvement > 0 {
		exp = s.cfg.GainExponent
	}

	for i := range s.Rewards.entries {
		e := &s.Rewards.entries[i]
		if k := tr.Count(e.Transition); k > 0 {
			e.Weight += s.cfg.LearningRate * improvement * math.Pow(float64(k), exp)
		}
		if e.Transition.Dependency {
			e.Weight += s.cfg.DependencyBonus
		}
	}
}

// Package sampler walks a reaction network from its initial state, picking
// each transition at random in proportion to its learned reward weight, and
// scores the resulting trajectory with a heuristic probability estimate.
package sampler

import (
	"context"
	"log/slog"
	"math/rand/v2"

	"github.com/nvandessel/tracelearn/internal/learning"
	"github.com/nvandessel/tracelearn/internal/logging"
	"github.com/nvandessel/tracelearn/internal/network"
)

// drawBound is the exclusive upper bound of the per-step selection draw.
const drawBound = 0.9

// Outcome is how a walk ended. Every outcome is an ordinary result.
type Outcome int

const (
	// OutcomeTarget means a nonzero target count was hit exactly.
	OutcomeTarget Outcome = iota
	// OutcomeDeadlock means no transition could be selected.
	OutcomeDeadlock
	// OutcomeStepLimit means the walk hit Options.MaxSteps.
	OutcomeStepLimit
)

// String returns the outcome name used in logs and the run archive.
func (o Outcome) String() string {
	switch o {
	case OutcomeTarget:
		return "target"
	case OutcomeDeadlock:
		return "deadlock"
	case OutcomeStepLimit:
		return "step-limit"
	default:
		return "unknown"
	}
}

// Options tunes a single walk.
type Options struct {
	// MaxSteps bounds the trajectory length. Zero means unbounded.
	MaxSteps int

	// Logger, when set, receives per-step records at trace level.
	Logger *slog.Logger
}

// Result is one sampled trajectory.
type Result struct {
	Trajectory  network.Trajectory
	Probability float64
	Outcome     Outcome
	Final       network.State
}

// NewRand returns a deterministic random source for the given seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

type candidate struct {
	t *network.Transition
	w float64
}

// Sample runs one walk over n using the weights in rewards. The table is
// only read. Given the same rng state and weights the result is identical.
func Sample(n *network.Network, rewards *learning.RewardTable, rng *rand.Rand, opts Options) Result {
	state := n.Initial.Clone()
	res := Result{Probability: 1}
	trace := opts.Logger != nil && opts.Logger.Enabled(context.Background(), logging.LevelTrace)

	enabled := make([]candidate, 0, rewards.Len())
	for {
		if n.TargetReached(state) {
			return res.finish(OutcomeTarget, state)
		}
		if opts.MaxSteps > 0 && len(res.Trajectory) >= opts.MaxSteps {
			return res.finish(OutcomeStepLimit, state)
		}

		enabled = enabled[:0]
		var total float64
		for i := 0; i < rewards.Len(); i++ {
			e := rewards.At(i)
			if e.Transition.Enabled(state) {
				enabled = append(enabled, candidate{t: e.Transition, w: e.Weight})
				total += e.Weight
			}
		}
		if len(enabled) == 0 || total <= 0 {
			return res.finish(OutcomeDeadlock, state)
		}

		rng.Shuffle(len(enabled), func(i, j int) {
			enabled[i], enabled[j] = enabled[j], enabled[i]
		})
		pick := choose(enabled, total, drawBound*rng.Float64())
		if pick == nil {
			return res.finish(OutcomeDeadlock, state)
		}

		p, ok := stepProbability(pick, state, enabled)
		if !ok {
			res.Probability = 0
			return res.finish(OutcomeDeadlock, state)
		}
		res.Probability *= p

		state = pick.Apply(state)
		res.Trajectory = append(res.Trajectory, pick)

		if trace {
			opts.Logger.Log(context.Background(), logging.LevelTrace, "step",
				"transition", pick.Name,
				"step_probability", p,
				"probability", res.Probability,
				"state", []uint64(state))
		}
	}
}

func (r Result) finish(o Outcome, s network.State) Result {
	r.Outcome = o
	r.Final = s
	return r
}

// choose walks the candidates accumulating normalized weight and returns the
// first one whose running total reaches r, or nil if none does.
func choose(cands []candidate, total, r float64) *network.Transition {
	var cum float64
	for _, c := range cands {
		cum += c.w / total
		if r <= cum {
			return c.t
		}
	}
	return nil
}

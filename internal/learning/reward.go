package learning

import (
	"github.com/nvandessel/tracelearn/internal/network"
)

// Entry pairs a transition with its learned weight.
type Entry struct {
	Transition *network.Transition
	Weight     float64
}

// RewardTable maps each transition of a network to a weight, in the
// network's declaration order. Entries are never added or removed after
// construction. Weights are unbounded and may go negative.
type RewardTable struct {
	entries []Entry
}

// NewRewardTable builds a table with starting weights taken from cfg.
func NewRewardTable(n *network.Network, cfg Config) *RewardTable {
	entries := make([]Entry, len(n.Transitions))
	for i, t := range n.Transitions {
		w := cfg.DefaultWeight
		if t.Dependency {
			w = cfg.DependencyWeight
		}
		entries[i] = Entry{Transition: t, Weight: w}
	}
	return &RewardTable{entries: entries}
}

// Len returns the number of entries.
func (rt *RewardTable) Len() int {
	return len(rt.entries)
}

// At returns the i-th entry.
func (rt *RewardTable) At(i int) Entry {
	return rt.entries[i]
}

// Entries returns a copy of all entries in table order.
func (rt *RewardTable) Entries() []Entry {
	out := make([]Entry, len(rt.entries))
	copy(out, rt.entries)
	return out
}

// Weight returns the weight of the named transition.
func (rt *RewardTable) Weight(name string) (float64, bool) {
	for _, e := range rt.entries {
		if e.Transition.Name == name {
			return e.Weight, true
		}
	}
	return 0, false
}

// Set overwrites the weight of the named transition. It reports false if
// no such transition exists.
func (rt *RewardTable) Set(name string, w float64) bool {
	for i := range rt.entries {
		if rt.entries[i].Transition.Name == name {
			rt.entries[i].Weight = w
			return true
		}
	}
	return false
}

// Total returns the sum of all weights.
func (rt *RewardTable) Total() float64 {
	var sum float64
	for _, e := range rt.entries {
		sum += e.Weight
	}
	return sum
}

// State is the mutable learning state of one run: the reward table and the
// history of trajectory probabilities. It is owned by a single run and is
// not safe for concurrent use.
type State struct {
	Rewards *RewardTable
	History []float64

	cfg Config
}

// NewState creates a fresh learning state for n.
func NewState(n *network.Network, cfg Config) *State {
	return &State{
		Rewards: NewRewardTable(n, cfg),
		History: make([]float64, 0, 64),
		cfg:     cfg,
	}
}

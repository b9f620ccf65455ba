// Package network defines reaction networks: species counts, rate-tagged
// transitions, and the initial and target configurations a walk runs between.
package network

import (
	"fmt"
	"strings"
)

// State holds one count per species, indexed by species position.
type State []uint64

// Clone returns an independent copy of the state.
func (s State) Clone() State {
	out := make(State, len(s))
	copy(out, s)
	return out
}

// Transition is a named state change. A network hands out pointers to its
// transitions and nothing mutates them afterwards.
type Transition struct {
	Name      string   `yaml:"name" json:"name"`
	Increment []uint64 `yaml:"increment" json:"increment"`
	Decrement []uint64 `yaml:"decrement" json:"decrement"`
	Rate      float64  `yaml:"rate" json:"rate"`

	// Dependency marks transitions that receive a standing reward bonus.
	Dependency bool `yaml:"dependency" json:"dependency"`
}

// Enabled reports whether every decrement requirement is met by s.
func (t *Transition) Enabled(s State) bool {
	for i, d := range t.Decrement {
		if s[i] < d {
			return false
		}
	}
	return true
}

// Apply returns the state reached by firing t from s. The input is not
// modified. Applying a transition that is not enabled is a programming error.
func (t *Transition) Apply(s State) State {
	if !t.Enabled(s) {
		panic(fmt.Sprintf("network: transition %s applied to state %v where it is not enabled", t.Name, s))
	}
	next := make(State, len(s))
	for i, c := range s {
		next[i] = c + t.Increment[i] - t.Decrement[i]
	}
	return next
}

// Network is an immutable reaction network definition.
type Network struct {
	Name        string
	Species     []string
	Transitions []*Transition
	Initial     State
	Target      State
}

// Dimension returns the number of species.
func (n *Network) Dimension() int {
	return len(n.Initial)
}

// Transition looks up a transition by name.
func (n *Network) Transition(name string) (*Transition, bool) {
	for _, t := range n.Transitions {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}

// TargetReached reports whether any species with a nonzero target count
// currently sits exactly at that count. One satisfied index is enough.
func (n *Network) TargetReached(s State) bool {
	for i, want := range n.Target {
		if want != 0 && s[i] == want {
			return true
		}
	}
	return false
}

// Enabled returns the transitions enabled in s, in declaration order.
func (n *Network) Enabled(s State) []*Transition {
	out := make([]*Transition, 0, len(n.Transitions))
	for _, t := range n.Transitions {
		if t.Enabled(s) {
			out = append(out, t)
		}
	}
	return out
}

// Trajectory is the ordered list of transitions taken by one walk.
type Trajectory []*Transition

// Names returns the transition names in order.
func (tr Trajectory) Names() []string {
	names := make([]string, len(tr))
	for i, t := range tr {
		names[i] = t.Name
	}
	return names
}

// String joins the transition names with single spaces.
func (tr Trajectory) String() string {
	return strings.Join(tr.Names(), " ")
}

// Count returns how many times t occurs in the trajectory.
func (tr Trajectory) Count(t *Transition) int {
	n := 0
	for _, step := range tr {
		if step == t {
			n++
		}
	}
	return n
}

package learning

import (
	"math"
	"testing"

	"github.com/nvandessel/tracelearn/internal/network"
)

const eps = 1e-9

func mustTransition(t *testing.T, n *network.Network, name string) *network.Transition {
	t.Helper()
	tr, ok := n.Transition(name)
	if !ok {
		t.Fatalf("transition %s not found", name)
	}
	return tr
}

func weight(t *testing.T, s *State, name string) float64 {
	t.Helper()
	w, ok := s.Rewards.Weight(name)
	if !ok {
		t.Fatalf("no weight for %s", name)
	}
	return w
}

func TestNewRewardTable(t *testing.T) {
	n := network.Reference()
	rt := NewRewardTable(n, DefaultConfig())

	if rt.Len() != len(n.Transitions) {
		t.Fatalf("Len() = %d, want %d", rt.Len(), len(n.Transitions))
	}
	for i, e := range rt.Entries() {
		if e.Transition != n.Transitions[i] {
			t.Errorf("entry %d is %s, want %s", i, e.Transition.Name, n.Transitions[i].Name)
		}
		want := 1.0
		if e.Transition.Dependency {
			want = 10.0
		}
		if e.Weight != want {
			t.Errorf("%s weight = %v, want %v", e.Transition.Name, e.Weight, want)
		}
	}
	if rt.Total() != 35 {
		t.Errorf("Total() = %v, want 35", rt.Total())
	}
}

func TestRewardTable_Set(t *testing.T) {
	rt := NewRewardTable(network.Reference(), DefaultConfig())
	if !rt.Set("R2", -3) {
		t.Fatal("Set(R2) reported missing transition")
	}
	if w, _ := rt.Weight("R2"); w != -3 {
		t.Errorf("Weight(R2) = %v, want -3", w)
	}
	if rt.Set("nope", 1) {
		t.Error("Set on unknown transition should report false")
	}
}

func TestAdjust_AppendsOneHistoryEntry(t *testing.T) {
	n := network.Reference()
	s := NewState(n, DefaultConfig())
	r1 := mustTransition(t, n, "R1")

	trajectories := []network.Trajectory{
		{},
		{r1},
		{r1, r1, r1},
		{},
		{r1},
		{},
		{r1, r1},
	}
	probs := []float64{0, 1e-5, 0.2, 0, 1e-40, 1, 3e-7}

	for i, tr := range trajectories {
		s.Adjust(tr, probs[i])
		if len(s.History) != i+1 {
			t.Fatalf("after %d adjustments history has %d entries", i+1, len(s.History))
		}
		if s.History[i] != probs[i] {
			t.Errorf("history[%d] = %v, want %v", i, s.History[i], probs[i])
		}
		if s.Rewards.Len() != len(n.Transitions) {
			t.Fatalf("reward table size changed to %d", s.Rewards.Len())
		}
	}
}

func TestAdjust_ShortHistoryOnlyDependencyBonus(t *testing.T) {
	n := network.Reference()
	s := NewState(n, DefaultConfig())
	r3 := mustTransition(t, n, "R3")
	r4 := mustTransition(t, n, "R4")

	adj := s.Adjust(network.Trajectory{r3, r4, r4}, 1e-6)

	if adj.Baseline != 0 || adj.Improvement != 0 {
		t.Errorf("short history: baseline=%v improvement=%v, want 0, 0", adj.Baseline, adj.Improvement)
	}
	if w := weight(t, s, "R3"); math.Abs(w-10.005) > eps {
		t.Errorf("R3 weight = %v, want 10.005", w)
	}
	if w := weight(t, s, "R4"); w != 1 {
		t.Errorf("R4 weight = %v, want 1", w)
	}
	if w := weight(t, s, "R8"); math.Abs(w-10.005) > eps {
		t.Errorf("R8 weight = %v, want 10.005 (bonus applies without occurrence)", w)
	}
}

func TestAdjust_ZeroProbabilityPunishes(t *testing.T) {
	n := network.Reference()
	s := NewState(n, DefaultConfig())
	r4 := mustTransition(t, n, "R4")

	adj := s.Adjust(network.Trajectory{r4, r4}, 0)

	if adj.Improvement != -100 {
		t.Errorf("Improvement = %v, want -100", adj.Improvement)
	}
	want := 1 + 0.001*-100*math.Pow(2, 0.85)
	if w := weight(t, s, "R4"); math.Abs(w-want) > eps {
		t.Errorf("R4 weight = %v, want %v", w, want)
	}
}

// With five history entries of 1e-3 the baseline is 0.8*-3 + 0.2*-8 = -4 for
// a trajectory of probability 1e-8, so the improvement is -8/-4 = 2.
func TestAdjust_ImprovementTwoScalesByOccurrences(t *testing.T) {
	n := network.Reference()
	s := NewState(n, DefaultConfig())
	s.History = append(s.History, 1e-3, 1e-3, 1e-3, 1e-3, 1e-3)
	r4 := mustTransition(t, n, "R4")

	before := s.Rewards.Entries()
	adj := s.Adjust(network.Trajectory{r4, r4, r4}, 1e-8)

	if math.Abs(adj.Baseline-(-4)) > eps {
		t.Errorf("Baseline = %v, want -4", adj.Baseline)
	}
	if math.Abs(adj.Improvement-2) > eps {
		t.Fatalf("Improvement = %v, want 2", adj.Improvement)
	}
	if adj.Penalty != 0 {
		t.Errorf("Penalty = %v, want 0", adj.Penalty)
	}

	want := 1 + 0.001*2.0*math.Pow(3, 0.95)
	if w := weight(t, s, "R4"); math.Abs(w-want) > eps {
		t.Errorf("R4 weight = %v, want %v", w, want)
	}

	for i, e := range s.Rewards.Entries() {
		name := e.Transition.Name
		switch {
		case name == "R4":
		case e.Transition.Dependency:
			if math.Abs(e.Weight-(before[i].Weight+0.005)) > eps {
				t.Errorf("%s weight = %v, want %v", name, e.Weight, before[i].Weight+0.005)
			}
		default:
			if e.Weight != before[i].Weight {
				t.Errorf("%s weight changed from %v to %v", name, before[i].Weight, e.Weight)
			}
		}
	}
}

func TestAdjust_LikelierTrajectoryGetsSmallImprovement(t *testing.T) {
	n := network.Reference()
	s := NewState(n, DefaultConfig())
	s.History = append(s.History, 1e-10, 1e-10, 1e-10, 1e-10, 1e-10, 1e-10)

	// log10(0.5) is a small negative; dividing by the negative baseline gives
	// a small positive ratio, well under the 1.0 a matching trajectory gets.
	adj := s.Adjust(network.Trajectory{}, 0.5)
	if adj.Improvement <= 0 || adj.Improvement >= 1 {
		t.Errorf("Improvement = %v, want in (0, 1)", adj.Improvement)
	}
}

func TestBaseline_UsesRecentWindow(t *testing.T) {
	n := network.Reference()
	s := NewState(n, DefaultConfig())

	// 30 entries: window is min(30/3, 5) = 5, so only the last five count.
	for i := 0; i < 25; i++ {
		s.History = append(s.History, 1e-50)
	}
	for i := 0; i < 5; i++ {
		s.History = append(s.History, 1e-2)
	}

	got := s.baseline(1e-2)
	if math.Abs(got-(-2)) > eps {
		t.Errorf("baseline = %v, want -2", got)
	}
}

func TestBaseline_FloorsZeroProbabilities(t *testing.T) {
	n := network.Reference()
	s := NewState(n, DefaultConfig())
	s.History = append(s.History, 0, 0, 0, 0, 0, 0)

	got := s.baseline(0)
	if math.IsInf(got, 0) || math.IsNaN(got) {
		t.Fatalf("baseline = %v, want finite", got)
	}
	if math.Abs(got-(-300)) > 1e-6 {
		t.Errorf("baseline = %v, want -300", got)
	}
}

func TestLengthPenalty_AlwaysZero(t *testing.T) {
	n := network.Reference()
	s := NewState(n, DefaultConfig())
	for i := 0; i < 10; i++ {
		s.History = append(s.History, 1e-5)
	}

	for _, length := range []int{0, 1, 7, 500} {
		if got := s.lengthPenalty(length); got != 0 {
			t.Errorf("lengthPenalty(%d) = %v, want 0", length, got)
		}
	}
}

func TestRenormalize_UniformWeights(t *testing.T) {
	n := network.Reference()
	s := NewState(n, DefaultConfig())
	for _, tr := range n.Transitions {
		s.Rewards.Set(tr.Name, 200)
	}

	if !s.renormalize() {
		t.Fatal("renormalize() did not trigger for total 1600")
	}
	for _, e := range s.Rewards.Entries() {
		if math.Abs(e.Weight-125) > eps {
			t.Errorf("%s weight = %v, want 125", e.Transition.Name, e.Weight)
		}
	}
	if math.Abs(s.Rewards.Total()-1000) > 1e-6 {
		t.Errorf("Total() = %v, want 1000", s.Rewards.Total())
	}
}

func TestRenormalize_BelowThreshold(t *testing.T) {
	n := network.Reference()
	s := NewState(n, DefaultConfig())
	for _, tr := range n.Transitions {
		s.Rewards.Set(tr.Name, 125)
	}
	if s.renormalize() {
		t.Error("renormalize() triggered at total exactly 1000")
	}
	if s.Rewards.Total() != 1000 {
		t.Errorf("Total() changed to %v", s.Rewards.Total())
	}
}

func TestRenormalize_SpreadWeights(t *testing.T) {
	n := network.Reference()
	s := NewState(n, DefaultConfig())
	weights := []float64{9000, 500, 400, 300, 200, 100, 50, 10}
	for i, tr := range n.Transitions {
		s.Rewards.Set(tr.Name, weights[i])
	}
	old := s.Rewards.Total()

	if !s.renormalize() {
		t.Fatal("renormalize() did not trigger")
	}
	got := s.Rewards.Total()
	if got > old {
		t.Errorf("total grew from %v to %v", old, got)
	}
	if math.Abs(got-1000) >= math.Abs(old-1000) {
		t.Errorf("total %v is not closer to 1000 than %v", got, old)
	}

	// 9000 sits more than one deviation above the mean: scaled by half.
	w, _ := s.Rewards.Weight("R1")
	if want := 9000 * (1000 / old) * 0.5; math.Abs(w-want) > eps {
		t.Errorf("R1 weight = %v, want %v", w, want)
	}
}

func TestRenormalize_CompressesExtremeOutlier(t *testing.T) {
	// Twenty transitions so a single value can sit beyond four deviations.
	n := &network.Network{Initial: network.State{0}, Target: network.State{1}}
	for i := 0; i < 20; i++ {
		n.Transitions = append(n.Transitions, &network.Transition{
			Name:      string(rune('a' + i)),
			Increment: []uint64{1},
			Decrement: []uint64{0},
			Rate:      1,
		})
	}
	s := NewState(n, DefaultConfig())
	s.Rewards.Set("a", 2000)
	old := s.Rewards.Total()

	if !s.renormalize() {
		t.Fatal("renormalize() did not trigger")
	}
	w, _ := s.Rewards.Weight("a")
	if want := math.Pow(2000, 0.4) * (1000 / old); math.Abs(w-want) > eps {
		t.Errorf("outlier weight = %v, want %v", w, want)
	}
	got := s.Rewards.Total()
	if got > old || math.Abs(got-1000) >= math.Abs(old-1000) {
		t.Errorf("total went from %v to %v", old, got)
	}
}

func TestRenormalize_NegativeOutlierIsOnlyScaled(t *testing.T) {
	n := &network.Network{Initial: network.State{0}, Target: network.State{1}}
	for i := 0; i < 20; i++ {
		n.Transitions = append(n.Transitions, &network.Transition{
			Name:      string(rune('a' + i)),
			Increment: []uint64{1},
			Decrement: []uint64{0},
			Rate:      1,
		})
	}
	s := NewState(n, DefaultConfig())
	for _, e := range s.Rewards.Entries() {
		s.Rewards.Set(e.Transition.Name, 200)
	}
	s.Rewards.Set("a", -1000)
	old := s.Rewards.Total()

	if !s.renormalize() {
		t.Fatal("renormalize() did not trigger")
	}

	// -1000 sits beyond four deviations below the mean but keeps its
	// magnitude order: plain low-side scaling.
	w, _ := s.Rewards.Weight("a")
	if want := -1000 * (1000 / old) * 1.2; math.Abs(w-want) > eps {
		t.Errorf("negative outlier weight = %v, want %v", w, want)
	}
	got := s.Rewards.Total()
	if math.IsNaN(got) || math.IsInf(got, 0) {
		t.Fatalf("total = %v", got)
	}
	if got > old || math.Abs(got-1000) >= math.Abs(old-1000) {
		t.Errorf("total went from %v to %v", old, got)
	}
	if got <= 0 {
		t.Errorf("total = %v, want positive", got)
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() error = %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative weight", func(c *Config) { c.DefaultWeight = -1 }},
		{"zero min history", func(c *Config) { c.MinHistory = 0 }},
		{"zero window", func(c *Config) { c.BaselineWindow = 0 }},
		{"recent weight above one", func(c *Config) { c.RecentWeight = 1.5 }},
		{"zero max total", func(c *Config) { c.MaxTotal = 0 }},
		{"zero sigmas", func(c *Config) { c.OutlierSigmas = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

package sampler

import "github.com/nvandessel/tracelearn/internal/network"

// blend starts from start and, for every species the reference transition
// consumes, averages in rate plus the current count of that species.
func blend(start, rate float64, ref *network.Transition, s network.State) float64 {
	r := start
	for i, d := range ref.Decrement {
		if d > 0 {
			r = (rate + float64(s[i]) + r) / 2
		}
	}
	return r
}

// score is the pseudo-rate of t in state s.
func score(t *network.Transition, s network.State) float64 {
	return blend(t.Rate, t.Rate, t, s)
}

// stepProbability is the heuristic probability of taking t from s among the
// enabled candidates. The normalizer blends each competitor's rate into t's
// own starting rate over t's consumed species, so it is not a sum of the
// competitors' own scores. A non-positive normalizer reports !ok.
func stepProbability(t *network.Transition, s network.State, cands []candidate) (float64, bool) {
	var total float64
	for _, c := range cands {
		total += blend(t.Rate, c.t.Rate, t, s)
	}
	if !(total > 0) {
		return 0, false
	}
	return score(t, s) / total, true
}

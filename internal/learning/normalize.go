package learning

import "math"

// renormalize pulls the table total back toward cfg.MaxTotal once it grows
// past it. Extreme non-negative outliers are first power-compressed (high)
// or expanded (low); negative weights skip the power step. Every weight is then scaled by MaxTotal/total, with weights more
// than one deviation above the mean scaled down harder and those more than
// one below scaled down less. Mean, deviation and total are all taken
// before any weight changes. It reports whether the table was touched.
func (s *State) renormalize() bool {
	entries := s.Rewards.entries
	if len(entries) == 0 {
		return false
	}

	total := s.Rewards.Total()
	if total <= s.cfg.MaxTotal || total == 0 {
		return false
	}

	mean := total / float64(len(entries))
	var variance float64
	for _, e := range entries {
		d := e.Weight - mean
		variance += d * d
	}
	stdev := math.Sqrt(variance / float64(len(entries)))

	factor := s.cfg.MaxTotal / total
	hiOutlier := mean + s.cfg.OutlierSigmas*stdev
	loOutlier := mean - s.cfg.OutlierSigmas*stdev

	for i := range entries {
		w := entries[i].Weight
		switch {
		case w < 0:
		case w > hiOutlier:
			w = math.Pow(w, s.cfg.HighPower)
		case w < loOutlier:
			w = math.Pow(w, s.cfg.LowPower)
		}

		switch {
		case w > mean+stdev:
			w *= factor * s.cfg.HighScale
		case w < mean-stdev:
			w *= factor * s.cfg.LowScale
		default:
			w *= factor
		}
		entries[i].Weight = w
	}
	return true
}

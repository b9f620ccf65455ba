// Package learning holds the per-run reward table and probability history,
// and the heuristic that reweights transitions after each trajectory.
package learning

import "fmt"

// Config holds the reward-adaptation tunables.
type Config struct {
	// DependencyWeight is the starting weight of dependency-set transitions. Default: 10.
	DependencyWeight float64 `json:"dependency_weight" yaml:"dependency_weight"`

	// DefaultWeight is the starting weight of every other transition. Default: 1.
	DefaultWeight float64 `json:"default_weight" yaml:"default_weight"`

	// LearningRate scales the improvement signal applied per occurrence. Default: 0.001.
	LearningRate float64 `json:"learning_rate" yaml:"learning_rate"`

	// GainExponent is applied to the occurrence count when improvement is positive. Default: 0.95.
	GainExponent float64 `json:"gain_exponent" yaml:"gain_exponent"`

	// LossExponent is applied to the occurrence count otherwise. Default: 0.85.
	LossExponent float64 `json:"loss_exponent" yaml:"loss_exponent"`

	// DependencyBonus is added to dependency-set transitions after every trajectory. Default: 0.005.
	DependencyBonus float64 `json:"dependency_bonus" yaml:"dependency_bonus"`

	// MinHistory is the history length below which baseline and penalty are zero. Default: 5.
	MinHistory int `json:"min_history" yaml:"min_history"`

	// BaselineWindow caps how many recent history entries feed the baseline. Default: 5.
	BaselineWindow int `json:"baseline_window" yaml:"baseline_window"`

	// RecentWeight is the share of the baseline taken from recent history;
	// the rest comes from the current trajectory. Default: 0.8.
	RecentWeight float64 `json:"recent_weight" yaml:"recent_weight"`

	// ZeroImprovement is the improvement assigned to a zero-probability trajectory. Default: -100.
	ZeroImprovement float64 `json:"zero_improvement" yaml:"zero_improvement"`

	// LengthPenalty scales the relative trajectory-length penalty. Default: 0.005.
	LengthPenalty float64 `json:"length_penalty" yaml:"length_penalty"`

	// MaxTotal is the weight sum above which the table is renormalized. Default: 1000.
	MaxTotal float64 `json:"max_total" yaml:"max_total"`

	// OutlierSigmas is the distance from the mean, in standard deviations,
	// beyond which weights are power-compressed or expanded. Default: 4.
	OutlierSigmas float64 `json:"outlier_sigmas" yaml:"outlier_sigmas"`

	// HighPower and LowPower are the exponents for high and low outliers. Defaults: 0.4, 2.2.
	HighPower float64 `json:"high_power" yaml:"high_power"`
	LowPower  float64 `json:"low_power"  yaml:"low_power"`

	// HighScale and LowScale adjust the normalization factor for weights
	// more than one deviation above or below the mean. Defaults: 0.5, 1.2.
	HighScale float64 `json:"high_scale" yaml:"high_scale"`
	LowScale  float64 `json:"low_scale"  yaml:"low_scale"`
}

// DefaultConfig returns the default reward-adaptation configuration.
func DefaultConfig() Config {
	return Config{
		DependencyWeight: 10.0,
		DefaultWeight:    1.0,
		LearningRate:     0.001,
		GainExponent:     0.95,
		LossExponent:     0.85,
		DependencyBonus:  0.005,
		MinHistory:       5,
		BaselineWindow:   5,
		RecentWeight:     0.8,
		ZeroImprovement:  -100,
		LengthPenalty:    0.005,
		MaxTotal:         1000,
		OutlierSigmas:    4,
		HighPower:        0.4,
		LowPower:         2.2,
		HighScale:        0.5,
		LowScale:         1.2,
	}
}

// Validate reports tunables that would make the adaptation ill-defined.
func (c Config) Validate() error {
	switch {
	case c.DependencyWeight < 0 || c.DefaultWeight < 0:
		return fmt.Errorf("initial weights must be non-negative, got %g and %g", c.DependencyWeight, c.DefaultWeight)
	case c.MinHistory < 1:
		return fmt.Errorf("min_history must be at least 1, got %d", c.MinHistory)
	case c.BaselineWindow < 1:
		return fmt.Errorf("baseline_window must be at least 1, got %d", c.BaselineWindow)
	case c.RecentWeight < 0 || c.RecentWeight > 1:
		return fmt.Errorf("recent_weight must be between 0 and 1, got %g", c.RecentWeight)
	case !(c.MaxTotal > 0):
		return fmt.Errorf("max_total must be positive, got %g", c.MaxTotal)
	case !(c.OutlierSigmas > 0):
		return fmt.Errorf("outlier_sigmas must be positive, got %g", c.OutlierSigmas)
	}
	return nil
}

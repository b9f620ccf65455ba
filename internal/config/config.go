// Package config provides unified configuration loading for tracelearn.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nvandessel/tracelearn/internal/learning"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultTraceLog is the trajectory log written in the working directory.
	DefaultTraceLog = "traces.txt"

	// DefaultChart is the probability history chart written in the working directory.
	DefaultChart = "learning_history.html"
)

// TracelearnConfig contains all tracelearn configuration settings.
type TracelearnConfig struct {
	// Network is the path to a YAML network definition. Empty selects the
	// built-in reference network.
	Network string `json:"network" yaml:"network"`

	// Sampling controls trajectory generation.
	Sampling SamplingConfig `json:"sampling" yaml:"sampling"`

	// Learning holds the reward-adaptation tunables.
	Learning learning.Config `json:"learning" yaml:"learning"`

	// Output names the files a run produces.
	Output OutputConfig `json:"output" yaml:"output"`

	// Logging contains settings for operational and event logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// SamplingConfig configures the sampler.
type SamplingConfig struct {
	// Seed seeds the run's random source. 0 picks a fresh seed per run.
	Seed uint64 `json:"seed" yaml:"seed"`

	// MaxSteps bounds a single trajectory. 0 means unlimited.
	MaxSteps int `json:"max_steps" yaml:"max_steps"`
}

// OutputConfig configures run artifacts.
type OutputConfig struct {
	TraceLog string `json:"trace_log" yaml:"trace_log"`

	// Chart is the history chart path; a .json extension writes the raw series.
	Chart string `json:"chart" yaml:"chart"`

	// Archive is the SQLite run archive path. Empty disables archiving.
	// Supports ${VAR} syntax for env vars.
	Archive string `json:"archive,omitempty" yaml:"archive,omitempty"`
}

// LoggingConfig configures tracelearn's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables event logging to ~/.tracelearn/adjustments.jsonl.
	// "trace" additionally logs every sampler step.
	Level string `json:"level" yaml:"level"`
}

// Default returns a TracelearnConfig with sensible defaults.
func Default() *TracelearnConfig {
	return &TracelearnConfig{
		Network: "",
		Sampling: SamplingConfig{
			Seed:     0,
			MaxSteps: 1_000_000,
		},
		Learning: learning.DefaultConfig(),
		Output: OutputConfig{
			TraceLog: DefaultTraceLog,
			Chart:    DefaultChart,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns ~/.tracelearn/config.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".tracelearn", "config.yaml"), nil
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.tracelearn/config.yaml -> environment variables
func Load() (*TracelearnConfig, error) {
	config := Default()

	if configPath, err := DefaultPath(); err == nil {
		if _, statErr := os.Stat(configPath); statErr == nil {
			fileConfig, loadErr := LoadFromFile(configPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file. Keys absent
// from the file keep their defaults.
func LoadFromFile(path string) (*TracelearnConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	config.Network = expandEnvVars(config.Network)
	config.Output.TraceLog = expandEnvVars(config.Output.TraceLog)
	config.Output.Chart = expandEnvVars(config.Output.Chart)
	config.Output.Archive = expandEnvVars(config.Output.Archive)

	return config, nil
}

// Resolve loads configuration from path when it is set, or from the default
// locations otherwise. Environment overrides apply in both cases.
func Resolve(path string) (*TracelearnConfig, error) {
	if path == "" {
		return Load()
	}
	config, err := LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	applyEnvOverrides(config)
	return config, nil
}

// Validate checks that the configuration is valid.
func (c *TracelearnConfig) Validate() error {
	if c.Sampling.MaxSteps < 0 {
		return fmt.Errorf("max_steps must be non-negative, got %d", c.Sampling.MaxSteps)
	}

	if c.Output.TraceLog == "" {
		return fmt.Errorf("trace_log must not be empty")
	}

	if c.Output.Chart == "" {
		return fmt.Errorf("chart must not be empty")
	}
	switch strings.ToLower(filepath.Ext(c.Output.Chart)) {
	case ".html", ".htm", ".json":
	default:
		return fmt.Errorf("chart %s: unsupported extension (valid: .html, .json)", c.Output.Chart)
	}

	if err := c.Learning.Validate(); err != nil {
		return fmt.Errorf("learning: %w", err)
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// Marshal renders the configuration as YAML.
func (c *TracelearnConfig) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return data, nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Unparseable numeric values are ignored.
func applyEnvOverrides(config *TracelearnConfig) {
	if v := os.Getenv("TRACELEARN_NETWORK"); v != "" {
		config.Network = v
	}

	if v := os.Getenv("TRACELEARN_SEED"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			config.Sampling.Seed = n
		}
	}

	if v := os.Getenv("TRACELEARN_MAX_STEPS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Sampling.MaxSteps = n
		}
	}

	if v := os.Getenv("TRACELEARN_TRACE_LOG"); v != "" {
		config.Output.TraceLog = v
	}

	if v := os.Getenv("TRACELEARN_CHART"); v != "" {
		config.Output.Chart = v
	}

	if v := os.Getenv("TRACELEARN_ARCHIVE"); v != "" {
		config.Output.Archive = v
	}

	if v := os.Getenv("TRACELEARN_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}

package network

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// definition is the on-disk YAML form of a network.
type definition struct {
	Name        string        `yaml:"name"`
	Species     []string      `yaml:"species,omitempty"`
	Initial     []uint64      `yaml:"initial"`
	Target      []uint64      `yaml:"target"`
	Transitions []*Transition `yaml:"transitions"`
}

// Load reads and validates a network definition from a YAML file.
func Load(path string) (*Network, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading network file: %w", err)
	}
	n, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("loading network %s: %w", path, err)
	}
	return n, nil
}

// Parse decodes and validates a YAML network definition.
func Parse(data []byte) (*Network, error) {
	var def definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parsing network definition: %w", err)
	}

	n := &Network{
		Name:        def.Name,
		Species:     def.Species,
		Transitions: def.Transitions,
		Initial:     State(def.Initial),
		Target:      State(def.Target),
	}
	if err := n.Validate(); err != nil {
		return nil, err
	}
	return n, nil
}

// Marshal encodes the network in the YAML form accepted by Parse.
func Marshal(n *Network) ([]byte, error) {
	def := definition{
		Name:        n.Name,
		Species:     n.Species,
		Initial:     []uint64(n.Initial),
		Target:      []uint64(n.Target),
		Transitions: n.Transitions,
	}
	return yaml.Marshal(def)
}

// Validate checks that every vector matches the species dimension and that
// transition names are unique.
func (n *Network) Validate() error {
	dim := n.Dimension()
	if dim == 0 {
		return fmt.Errorf("network has no species: initial state is empty")
	}
	if len(n.Target) != dim {
		return fmt.Errorf("target has %d entries, want %d", len(n.Target), dim)
	}
	if len(n.Species) != 0 && len(n.Species) != dim {
		return fmt.Errorf("species lists %d names, want %d", len(n.Species), dim)
	}
	if len(n.Transitions) == 0 {
		return fmt.Errorf("network has no transitions")
	}

	seen := make(map[string]bool, len(n.Transitions))
	for i, t := range n.Transitions {
		if t == nil {
			return fmt.Errorf("transition %d is empty", i)
		}
		if t.Name == "" {
			return fmt.Errorf("transition %d has no name", i)
		}
		if seen[t.Name] {
			return fmt.Errorf("duplicate transition name %q", t.Name)
		}
		seen[t.Name] = true

		if len(t.Increment) != dim {
			return fmt.Errorf("transition %s: increment has %d entries, want %d", t.Name, len(t.Increment), dim)
		}
		if len(t.Decrement) != dim {
			return fmt.Errorf("transition %s: decrement has %d entries, want %d", t.Name, len(t.Decrement), dim)
		}
		if math.IsNaN(t.Rate) || math.IsInf(t.Rate, 0) {
			return fmt.Errorf("transition %s: rate must be finite, got %v", t.Name, t.Rate)
		}
	}
	return nil
}

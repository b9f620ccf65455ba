package network

import (
	"fmt"
	"io"
	"strings"

	"github.com/logrusorgru/aurora"
)

// Describe writes a human-readable listing of the network to w.
func (n *Network) Describe(w io.Writer, colored bool) {
	au := aurora.NewAurora(colored)

	name := n.Name
	if name == "" {
		name = "(unnamed)"
	}
	fmt.Fprintf(w, "Network: %s\n", au.Bold(name))
	if len(n.Species) > 0 {
		fmt.Fprintf(w, "Species: %s\n", strings.Join(n.Species, " "))
	}
	fmt.Fprintf(w, "Initial: %v\n", []uint64(n.Initial))
	fmt.Fprintf(w, "Target:  %v\n", []uint64(n.Target))
	fmt.Fprintf(w, "Enabled: %s\n", Trajectory(n.Enabled(n.Initial)).String())
	fmt.Fprintf(w, "Transitions:\n")
	for _, t := range n.Transitions {
		marker := " "
		if t.Dependency {
			marker = au.Green("*").String()
		}
		fmt.Fprintf(w, "  %s %-6s rate=%-10g +%v -%v\n",
			marker, au.Cyan(t.Name), t.Rate, t.Increment, t.Decrement)
	}
}

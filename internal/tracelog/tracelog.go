// Package tracelog writes the plain-text trajectory log: a run header
// followed by one line of space-separated transition names per trajectory.
package tracelog

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/nvandessel/tracelearn/internal/network"
)

// HeaderPrefix starts the first line of every log.
const HeaderPrefix = "EXPERIMENTS AT "

// Writer appends trajectories to an open log file. Each Append reaches the
// OS before returning, so completed trajectories survive an aborted run.
type Writer struct {
	path  string
	file  *os.File
	lines int
}

// Create truncates (or creates) the log at path and stamps it with now.
func Create(path string, now time.Time) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening trajectory log: %w", err)
	}
	if _, err := fmt.Fprintf(f, "%s%s\n", HeaderPrefix, now.Format(time.RFC3339)); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing trajectory log header: %w", err)
	}
	return &Writer{path: path, file: f}, nil
}

// Append writes one trajectory line.
func (w *Writer) Append(tr network.Trajectory) error {
	if _, err := w.file.WriteString(tr.String() + "\n"); err != nil {
		return fmt.Errorf("appending to trajectory log: %w", err)
	}
	w.lines++
	return nil
}

// Lines returns the number of trajectories written so far.
func (w *Writer) Lines() int {
	return w.lines
}

// Path returns the log file path.
func (w *Writer) Path() string {
	return w.path
}

// Close closes the log file.
func (w *Writer) Close() error {
	return w.file.Close()
}

// Read parses a trajectory log, returning the header timestamp text and the
// name sequence of every trajectory in order.
func Read(path string) (string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", nil, fmt.Errorf("opening trajectory log: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return "", nil, fmt.Errorf("reading trajectory log: %w", err)
		}
		return "", nil, fmt.Errorf("trajectory log %s is empty", path)
	}
	header := sc.Text()
	if !strings.HasPrefix(header, HeaderPrefix) {
		return "", nil, fmt.Errorf("trajectory log %s has no header", path)
	}

	var out [][]string
	for sc.Scan() {
		out = append(out, strings.Fields(sc.Text()))
	}
	if err := sc.Err(); err != nil {
		return "", nil, fmt.Errorf("reading trajectory log: %w", err)
	}
	return strings.TrimPrefix(header, HeaderPrefix), out, nil
}

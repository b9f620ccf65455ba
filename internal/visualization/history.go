// Package visualization renders the per-trajectory probability history of a
// training run as a chart.
package visualization

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// Format specifies the output format for history rendering.
type Format string

const (
	FormatHTML Format = "html"
	FormatJSON Format = "json"
)

const (
	// LogFloor stands in for log10 of zero or non-positive probabilities.
	LogFloor = -330.0

	// DownsampleAbove is the history length beyond which the series is thinned.
	DownsampleAbove = 1000

	// DownsampleTarget is the approximate number of points kept when thinning.
	DownsampleTarget = 100

	// SeriesName labels the plotted line.
	SeriesName = "Log Trace Probability"
)

// Point is one plotted history sample.
type Point struct {
	Index int     `json:"index"`
	Log10 float64 `json:"log10"`
}

// LogSeries converts a probability history to log10 points, floored at
// LogFloor, keeping every stride-th point once the history is longer than
// DownsampleAbove.
func LogSeries(history []float64) []Point {
	stride := 1
	if len(history) > DownsampleAbove {
		stride = max(len(history)/DownsampleTarget, 1)
	}

	points := make([]Point, 0, len(history)/stride+1)
	for i := 0; i < len(history); i += stride {
		points = append(points, Point{Index: i, Log10: floorLog10(history[i])})
	}
	return points
}

func floorLog10(p float64) float64 {
	if !(p > 0) {
		return LogFloor
	}
	return math.Max(math.Log10(p), LogFloor)
}

// RenderHTML writes a self-contained HTML page with a line chart of the
// history to w.
func RenderHTML(w io.Writer, history []float64, title string) error {
	points := LogSeries(history)

	xs := make([]string, len(points))
	ys := make([]opts.LineData, len(points))
	for i, p := range points {
		xs[i] = strconv.Itoa(p.Index)
		ys[i] = opts.LineData{Value: p.Log10}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: title,
			Theme:     "shine",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("%d trajectories", len(history)),
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "trajectory"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "log10 p", Max: 0}),
	)
	line.SetXAxis(xs).AddSeries(SeriesName, ys)

	page := components.NewPage()
	page.AddCharts(line)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

// RenderJSON writes the plotted series as indented JSON to w.
func RenderJSON(w io.Writer, history []float64) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(LogSeries(history)); err != nil {
		return fmt.Errorf("encode series: %w", err)
	}
	return nil
}

// WriteFile renders the history to path in the given format.
func WriteFile(path string, format Format, history []float64, title string) error {
	var render func(io.Writer) error
	switch format {
	case FormatHTML, "":
		render = func(w io.Writer) error { return RenderHTML(w, history, title) }
	case FormatJSON:
		render = func(w io.Writer) error { return RenderJSON(w, history) }
	default:
		return fmt.Errorf("unsupported format %q (use 'html' or 'json')", format)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}
	err = render(f)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close chart file: %w", cerr)
	}
	return err
}

// FormatForPath picks a format from a file extension, defaulting to HTML.
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatHTML
}

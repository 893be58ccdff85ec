// Frame timing statistics
package metrics

import (
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Timings keeps the most recent detection durations of a tracking session
type Timings struct {
	window  int
	samples []float64 // milliseconds, ring buffer
	next    int
	total   int
}

// TimingSummary describes the recorded durations
type TimingSummary struct {
	Frames int
	Mean   time.Duration
	StdDev time.Duration
	P95    time.Duration
	Max    time.Duration
}

// NewTimings keeps up to window samples. window < 1 keeps 1.
func NewTimings(window int) *Timings {
	if window < 1 {
		window = 1
	}
	return &Timings{
		window:  window,
		samples: make([]float64, 0, window),
	}
}

// Record adds one frame duration
func (t *Timings) Record(d time.Duration) {
	ms := float64(d) / float64(time.Millisecond)
	if len(t.samples) < t.window {
		t.samples = append(t.samples, ms)
	} else {
		t.samples[t.next] = ms
	}
	t.next = (t.next + 1) % t.window
	t.total++
}

// Frames returns how many durations were recorded in total
func (t *Timings) Frames() int {
	return t.total
}

// Summary computes statistics over the retained window
func (t *Timings) Summary() TimingSummary {
	s := TimingSummary{Frames: t.total}
	if len(t.samples) == 0 {
		return s
	}

	sorted := append([]float64(nil), t.samples...)
	sort.Float64s(sorted)

	s.Mean = msToDuration(stat.Mean(sorted, nil))
	if len(sorted) > 1 {
		s.StdDev = msToDuration(stat.StdDev(sorted, nil))
	}
	s.P95 = msToDuration(stat.Quantile(0.95, stat.Empirical, sorted, nil))
	s.Max = msToDuration(sorted[len(sorted)-1])
	return s
}

// SavePlot writes a histogram of the retained durations to path. The image
// format follows the file extension.
func (t *Timings) SavePlot(path string) error {
	if len(t.samples) == 0 {
		return fmt.Errorf("no timings recorded")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Glint detection time (%d frames)", t.total)
	p.X.Label.Text = "Duration (ms)"
	p.Y.Label.Text = "Frames"

	hist, err := plotter.NewHist(plotter.Values(append([]float64(nil), t.samples...)), 20)
	if err != nil {
		return fmt.Errorf("build histogram: %w", err)
	}
	p.Add(hist)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save timing plot: %w", err)
	}
	return nil
}

func msToDuration(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}

package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func maskWithMarkers(rows, cols int, markers ...[2]int) gocv.Mat {
	m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 0, 0, 0), rows, cols, gocv.MatTypeCV8U)
	for _, p := range markers {
		m.SetUCharAt(p[1], p[0], 0)
	}
	return m
}

func TestFMeasure(t *testing.T) {
	f := NewFMeasure()

	t.Run("identical masks", func(t *testing.T) {
		a := maskWithMarkers(10, 10, [2]int{1, 1}, [2]int{2, 2})
		defer a.Close()
		b := a.Clone()
		defer b.Close()

		v, err := f.Calculate(a, b)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, v, 1e-9)
	})

	t.Run("partial overlap", func(t *testing.T) {
		a := maskWithMarkers(10, 10, [2]int{1, 1}, [2]int{2, 2})
		defer a.Close()
		b := maskWithMarkers(10, 10, [2]int{1, 1}, [2]int{5, 5})
		defer b.Close()

		v, err := f.Calculate(a, b)
		require.NoError(t, err)
		assert.InDelta(t, 0.5, v, 1e-9)
	})

	t.Run("both empty", func(t *testing.T) {
		a := maskWithMarkers(10, 10)
		defer a.Close()
		b := maskWithMarkers(10, 10)
		defer b.Close()

		v, err := f.Calculate(a, b)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, v, 1e-9)
	})

	t.Run("size mismatch", func(t *testing.T) {
		a := maskWithMarkers(10, 10)
		defer a.Close()
		b := maskWithMarkers(10, 12)
		defer b.Close()

		_, err := f.Calculate(a, b)
		assert.Error(t, err)
	})
}

func TestEvaluatorCalculateAll(t *testing.T) {
	e := NewEvaluator()
	assert.Equal(t, []string{"f_measure", "marker_ratio"}, e.Names())

	a := maskWithMarkers(8, 8, [2]int{0, 0}, [2]int{1, 0})
	defer a.Close()
	b := maskWithMarkers(8, 8, [2]int{0, 0})
	defer b.Close()

	results := e.CalculateAll(a, b)
	assert.InDelta(t, 0.5, results["marker_ratio"], 1e-9)
	assert.InDelta(t, 2.0/3.0, results["f_measure"], 1e-9)

	_, err := e.Calculate("psnr", a, b)
	assert.Error(t, err)
}

type constantMetric struct{}

func (constantMetric) Calculate(_, _ gocv.Mat) (float64, error) { return 0.25, nil }
func (constantMetric) GetName() string                         { return "constant" }

func TestEvaluatorRegistersByName(t *testing.T) {
	e := NewEvaluator()
	e.Register(constantMetric{})
	assert.Equal(t, []string{"constant", "f_measure", "marker_ratio"}, e.Names())

	a := maskWithMarkers(4, 4)
	defer a.Close()

	v, err := e.Calculate("constant", a, a)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, v, 1e-9)

	for _, name := range e.Names() {
		assert.Contains(t, e.CalculateAll(a, a), name)
	}
}

func TestTimings(t *testing.T) {
	timings := NewTimings(4)
	assert.Equal(t, TimingSummary{}, timings.Summary())

	for _, ms := range []int{10, 20, 30, 40, 50, 60} {
		timings.Record(time.Duration(ms) * time.Millisecond)
	}

	s := timings.Summary()
	assert.Equal(t, 6, s.Frames)
	assert.Equal(t, 45*time.Millisecond, s.Mean)
	assert.Equal(t, 60*time.Millisecond, s.Max)
	assert.Equal(t, 60*time.Millisecond, s.P95)
	assert.Greater(t, s.StdDev, time.Duration(0))
}

func TestTimingsSavePlot(t *testing.T) {
	timings := NewTimings(16)
	assert.Error(t, timings.SavePlot(filepath.Join(t.TempDir(), "empty.png")))

	for i := 1; i <= 10; i++ {
		timings.Record(time.Duration(i) * time.Millisecond)
	}

	path := filepath.Join(t.TempDir(), "timings.png")
	require.NoError(t, timings.SavePlot(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

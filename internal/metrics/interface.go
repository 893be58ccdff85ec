// Detector comparison metrics
package metrics

import (
	"fmt"
	"sort"

	"gocv.io/x/gocv"
)

// Metric compares a candidate mask against a reference mask. Both use the
// marker convention (0 marks a glint pixel).
type Metric interface {
	// Calculate computes the metric value
	Calculate(reference, candidate gocv.Mat) (float64, error)

	// GetName returns the name the metric is registered and reported under
	GetName() string
}

// Evaluator manages and calculates multiple metrics
type Evaluator struct {
	metrics map[string]Metric
}

// NewEvaluator creates an evaluator with the default metrics registered
func NewEvaluator() *Evaluator {
	e := &Evaluator{
		metrics: make(map[string]Metric),
	}
	e.Register(NewFMeasure())
	e.Register(NewMarkerRatio())
	return e
}

// Register registers a metric under its name
func (e *Evaluator) Register(metric Metric) {
	e.metrics[metric.GetName()] = metric
}

// Calculate calculates a specific metric
func (e *Evaluator) Calculate(name string, reference, candidate gocv.Mat) (float64, error) {
	metric, exists := e.metrics[name]
	if !exists {
		return 0, fmt.Errorf("metric not found: %s", name)
	}
	return metric.Calculate(reference, candidate)
}

// CalculateAll calculates every registered metric, skipping the ones that fail
func (e *Evaluator) CalculateAll(reference, candidate gocv.Mat) map[string]float64 {
	results := make(map[string]float64, len(e.metrics))
	for name, metric := range e.metrics {
		if value, err := metric.Calculate(reference, candidate); err == nil {
			results[name] = value
		}
	}
	return results
}

// Names lists the registered metrics in name order
func (e *Evaluator) Names() []string {
	names := make([]string, 0, len(e.metrics))
	for name := range e.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

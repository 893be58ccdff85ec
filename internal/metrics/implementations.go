// Mask agreement metrics
package metrics

import (
	"fmt"

	"gocv.io/x/gocv"
)

// FMeasure scores how well the candidate's marker pixels match the reference's
type FMeasure struct{}

// NewFMeasure creates a new F-measure metric
func NewFMeasure() *FMeasure {
	return &FMeasure{}
}

func (f *FMeasure) Calculate(reference, candidate gocv.Mat) (float64, error) {
	if err := checkPair(reference, candidate); err != nil {
		return 0, err
	}

	tp, fp, fn := confusion(reference, candidate)

	precision := 0.0
	if tp+fp > 0 {
		precision = tp / (tp + fp)
	}

	recall := 0.0
	if tp+fn > 0 {
		recall = tp / (tp + fn)
	}

	// two empty masks agree completely
	if tp+fp+fn == 0 {
		return 1, nil
	}
	if precision+recall == 0 {
		return 0, nil
	}

	return 2 * (precision * recall) / (precision + recall), nil
}

func (f *FMeasure) GetName() string {
	return "f_measure"
}

// MarkerRatio is the candidate's marker pixel count over the reference's
type MarkerRatio struct{}

func NewMarkerRatio() *MarkerRatio {
	return &MarkerRatio{}
}

func (m *MarkerRatio) Calculate(reference, candidate gocv.Mat) (float64, error) {
	if err := checkPair(reference, candidate); err != nil {
		return 0, err
	}

	refCount := markerCount(reference)
	candCount := markerCount(candidate)
	if refCount == 0 {
		if candCount == 0 {
			return 1, nil
		}
		return 0, fmt.Errorf("reference mask has no marker pixels")
	}
	return float64(candCount) / float64(refCount), nil
}

func (m *MarkerRatio) GetName() string {
	return "marker_ratio"
}

func checkPair(reference, candidate gocv.Mat) error {
	if reference.Empty() || candidate.Empty() {
		return fmt.Errorf("empty images")
	}
	if reference.Rows() != candidate.Rows() || reference.Cols() != candidate.Cols() {
		return fmt.Errorf("image dimensions mismatch: %dx%d vs %dx%d",
			reference.Cols(), reference.Rows(), candidate.Cols(), candidate.Rows())
	}
	if reference.Type() != gocv.MatTypeCV8U || candidate.Type() != gocv.MatTypeCV8U {
		return fmt.Errorf("expected 8-bit single channel masks")
	}
	return nil
}

func markerCount(m gocv.Mat) int {
	return m.Rows()*m.Cols() - gocv.CountNonZero(m)
}

// confusion counts marker agreement. A pixel is a marker when it is 0.
func confusion(reference, candidate gocv.Mat) (tp, fp, fn float64) {
	both := gocv.NewMat()
	defer both.Close()

	// marker in both masks <=> zero in the OR of the two
	gocv.BitwiseOr(reference, candidate, &both)
	tp = float64(markerCount(both))
	fp = float64(markerCount(candidate)) - tp
	fn = float64(markerCount(reference)) - tp

	return tp, fp, fn
}

// Glint detector capability and registry
package algorithms

import (
	"fmt"
	"image"
	"sort"

	"gocv.io/x/gocv"

	"eye-glint-tracker/internal/kernel"
)

// Detector finds glints in an 8-bit analysis image (downsampled space)
type Detector interface {
	Detect(analysis gocv.Mat) (Detection, error)
	Name() string
}

// Detection is the output of a Detector. Mask uses the marker convention:
// 0 where the detector considers a pixel part of a glint.
type Detection struct {
	Glints []image.Point
	Mask   gocv.Mat
}

// Close releases the mask. Safe on a zero Detection.
func (d *Detection) Close() {
	d.Mask.Close()
}

// Deps carries what a detector factory may need
type Deps struct {
	Scan   ScanOptions
	Kernel *kernel.Generators
}

// Factory builds a detector for one tracking session
type Factory func(deps Deps) (Detector, error)

var detectors = make(map[string]Factory)

func Register(name string, factory Factory) {
	detectors[name] = factory
}

// NewDetector builds the named detector
func NewDetector(name string, deps Deps) (Detector, error) {
	factory, exists := detectors[name]
	if !exists {
		return nil, fmt.Errorf("detector not found: %s", name)
	}
	return factory(deps)
}

func IsValidDetector(name string) bool {
	_, exists := detectors[name]
	return exists
}

// DetectorNames lists registered detectors in name order
func DetectorNames() []string {
	names := make([]string, 0, len(detectors))
	for name := range detectors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register(ScannerName, func(deps Deps) (Detector, error) {
		if err := deps.Scan.Validate(); err != nil {
			return nil, fmt.Errorf("scanner: %w", err)
		}
		return NewScanner(deps.Scan), nil
	})
	Register(KernelName, func(deps Deps) (Detector, error) {
		if deps.Kernel == nil {
			return nil, fmt.Errorf("kernel detector needs kernel generators")
		}
		if err := deps.Scan.Validate(); err != nil {
			return nil, fmt.Errorf("kernel: %w", err)
		}
		return NewKernelDetector(deps.Kernel, deps.Scan), nil
	})
}

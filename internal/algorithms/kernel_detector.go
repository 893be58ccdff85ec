// Kernel set adapter for the Detector interface
package algorithms

import (
	"fmt"

	"gocv.io/x/gocv"

	"eye-glint-tracker/internal/kernel"
)

// KernelDetector adapts the kernel set to the Detector interface. Glints are
// located in the kernel output with the same rule the scanner uses.
type KernelDetector struct {
	gens *kernel.Generators
	opts ScanOptions
}

func NewKernelDetector(gens *kernel.Generators, opts ScanOptions) *KernelDetector {
	return &KernelDetector{gens: gens, opts: opts}
}

func (k *KernelDetector) Name() string {
	return KernelName
}

func (k *KernelDetector) Detect(analysis gocv.Mat) (Detection, error) {
	found, err := k.gens.FindGlints(analysis)
	if err != nil {
		found.Close()
		return Detection{}, fmt.Errorf("kernel detect: %w", err)
	}
	defer found.Close()

	// kernel output is 255 on glints, flip to the marker convention
	mask := gocv.NewMat()
	gocv.BitwiseNot(found, &mask)

	return Detection{
		Glints: LocateGlints(mask, k.opts),
		Mask:   mask,
	}, nil
}

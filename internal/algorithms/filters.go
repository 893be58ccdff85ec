// Filters applied to eye regions
package algorithms

import (
	"image"

	"gocv.io/x/gocv"
)

// MaxEdgeThreshold bounds the interactive edge threshold
const MaxEdgeThreshold = 100

// Soften applies a 3x3 box blur
func Soften(region gocv.Mat) gocv.Mat {
	out := gocv.NewMat()
	gocv.Blur(region, &out, image.Pt(3, 3))
	return out
}

// EdgeMap runs Canny with the hysteresis pair (threshold, 2*threshold) and
// the default 3x3 Sobel aperture. threshold is clamped to [0, MaxEdgeThreshold].
// Gradient magnitude is the L1 norm: gocv does not expose Canny's L2gradient flag.
func EdgeMap(region gocv.Mat, threshold int) gocv.Mat {
	threshold = ClampEdgeThreshold(threshold)

	edges := gocv.NewMat()
	gocv.Canny(region, &edges, float32(threshold), float32(threshold*2))
	return edges
}

func ClampEdgeThreshold(threshold int) int {
	return min(max(threshold, 0), MaxEdgeThreshold)
}

package algorithms

import (
	"image"
	"testing"

	"gocv.io/x/gocv"
)

// markerImage returns a binarized image (255 background) with square blobs of
// marker pixels centered on each point.
func markerImage(t *testing.T, rows, cols, half int, centers ...image.Point) gocv.Mat {
	t.Helper()
	m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 0, 0, 0), rows, cols, gocv.MatTypeCV8U)
	for _, c := range centers {
		fillSquare(m, c, half, 0)
	}
	return m
}

// analysisImage returns an 8-bit eye image with a dim uniform background and
// bright square spots centered on each point.
func analysisImage(t *testing.T, rows, cols, half int, centers ...image.Point) gocv.Mat {
	t.Helper()
	m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(20, 0, 0, 0), rows, cols, gocv.MatTypeCV8U)
	for _, c := range centers {
		fillSquare(m, c, half, 220)
	}
	return m
}

func fillSquare(m gocv.Mat, c image.Point, half int, v uint8) {
	for y := c.Y - half; y <= c.Y+half; y++ {
		for x := c.X - half; x <= c.X+half; x++ {
			m.SetUCharAt(y, x, v)
		}
	}
}

package algorithms

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

// lowContrastSquare is a 40x40 image with a faint 16x16 square. Its Sobel
// response stays far below 100.
func lowContrastSquare(t *testing.T) gocv.Mat {
	t.Helper()
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(20, 0, 0, 0), 40, 40, gocv.MatTypeCV8U)
	square := img.Region(image.Rect(12, 12, 28, 28))
	square.SetTo(gocv.NewScalar(30, 0, 0, 0))
	square.Close()
	return img
}

func edgeCount(t *testing.T, img gocv.Mat, threshold int) int {
	t.Helper()
	edges := EdgeMap(img, threshold)
	defer edges.Close()
	require.Equal(t, img.Rows(), edges.Rows())
	require.Equal(t, img.Cols(), edges.Cols())
	return gocv.CountNonZero(edges)
}

func TestEdgeMapThreshold(t *testing.T) {
	img := lowContrastSquare(t)
	defer img.Close()

	low := edgeCount(t, img, 0)
	high := edgeCount(t, img, MaxEdgeThreshold)

	assert.Greater(t, low, 0)
	assert.Equal(t, 0, high)

	t.Run("clamped above", func(t *testing.T) {
		assert.Equal(t, high, edgeCount(t, img, 250))
	})

	t.Run("clamped below", func(t *testing.T) {
		assert.Equal(t, low, edgeCount(t, img, -5))
	})
}

func TestClampEdgeThreshold(t *testing.T) {
	cases := map[int]int{-5: 0, 0: 0, 5: 5, 100: 100, 250: 100}
	for in, want := range cases {
		assert.Equal(t, want, ClampEdgeThreshold(in), "input %d", in)
	}
}

func TestSoften(t *testing.T) {
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 9, 9, gocv.MatTypeCV8U)
	defer img.Close()
	img.SetUCharAt(4, 4, 252)

	soft := Soften(img)
	defer soft.Close()

	assert.Equal(t, uint8(252), img.GetUCharAt(4, 4))
	assert.Equal(t, uint8(28), soft.GetUCharAt(4, 4))
	assert.Equal(t, uint8(28), soft.GetUCharAt(3, 5))
	assert.Equal(t, uint8(0), soft.GetUCharAt(4, 6))
}

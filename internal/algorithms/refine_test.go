package algorithms

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"gocv.io/x/gocv"
)

func TestRefineCenterUniformBlob(t *testing.T) {
	center := image.Pt(30, 40)
	img := markerImage(t, 100, 120, 2, center)
	defer img.Close()

	probes := []image.Point{
		center,
		{X: 28, Y: 38},
		{X: 32, Y: 42},
		{X: 28, Y: 42},
		{X: 31, Y: 39},
	}
	for _, p := range probes {
		got, ok := RefineCenter(img, p, 20)
		assert.True(t, ok, "probe %v", p)
		assert.Equal(t, center, got, "probe %v", p)
	}
}

func TestRefineCenterTruncates(t *testing.T) {
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 0, 0, 0), 10, 10, gocv.MatTypeCV8U)
	defer img.Close()
	img.SetUCharAt(2, 3, 0)
	img.SetUCharAt(2, 4, 0)

	got, ok := RefineCenter(img, image.Pt(3, 2), 5)
	assert.True(t, ok)
	assert.Equal(t, image.Pt(3, 2), got)
}

func TestRefineCenterNoMarkers(t *testing.T) {
	img := markerImage(t, 50, 50, 0)
	defer img.Close()

	got, ok := RefineCenter(img, image.Pt(25, 25), 10)
	assert.False(t, ok)
	assert.Equal(t, image.Point{}, got)
}

func TestRefineCenterClipsWindow(t *testing.T) {
	// blob touching the top-left corner, window reaching past the border
	img := markerImage(t, 40, 40, 1, image.Pt(1, 1))
	defer img.Close()

	got, ok := RefineCenter(img, image.Pt(0, 0), 30)
	assert.True(t, ok)
	assert.Equal(t, image.Pt(1, 1), got)
}

func TestRefineCenterRegionView(t *testing.T) {
	img := markerImage(t, 60, 60, 2, image.Pt(40, 40))
	defer img.Close()

	view := img.Region(image.Rect(20, 20, 60, 60))
	defer view.Close()

	got, ok := RefineCenter(view, image.Pt(20, 20), 10)
	assert.True(t, ok)
	assert.Equal(t, image.Pt(20, 20), got)
}

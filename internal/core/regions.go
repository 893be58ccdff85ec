// Eye regions of interest around detected glints
package core

import (
	"image"

	"gocv.io/x/gocv"
)

// EyeRegion is one glint's region of interest
type EyeRegion struct {
	Index  int
	Glint  image.Point     // downsampled space
	Center image.Point     // full resolution
	Bounds image.Rectangle // full resolution, clipped to the frame
	Image  gocv.Mat        // 8-bit rescaled crop
	Edges  gocv.Mat        // edge map of Image
}

// Close releases the region's images
func (r *EyeRegion) Close() {
	r.Image.Close()
	r.Edges.Close()
}

// EyeRegionBounds centers a size rectangle on the full resolution projection
// of glint and clips it to frame. The result is empty when nothing overlaps.
func EyeRegionBounds(glint image.Point, size image.Point, frame image.Rectangle) image.Rectangle {
	center := ToFullResolution(glint)
	topLeft := center.Sub(size.Div(2))
	return image.Rectangle{Min: topLeft, Max: topLeft.Add(size)}.Intersect(frame)
}

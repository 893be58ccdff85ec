// Centroid refinement of marker pixels
package algorithms

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// RefineCenter averages the coordinates of all marker (0) pixels in the
// square window [p-size, p+size) around p, clipped to the image. The mean is
// truncated by integer division.
//
// When the window holds no marker pixels it returns the origin and false.
func RefineCenter(img gocv.Mat, p image.Point, size int) (image.Point, bool) {
	pix, release, err := markerPixels(img)
	if err != nil {
		return image.Point{}, false
	}
	defer release()

	return refineCenter(pix, img.Cols(), img.Rows(), p, size)
}

func refineCenter(pix []uint8, cols, rows int, p image.Point, size int) (image.Point, bool) {
	var xSum, ySum, count int

	for y := max(0, p.Y-size); y < min(rows, p.Y+size); y++ {
		row := pix[y*cols : (y+1)*cols]
		for x := max(0, p.X-size); x < min(cols, p.X+size); x++ {
			if row[x] == 0 {
				xSum += x
				ySum += y
				count++
			}
		}
	}

	if count == 0 {
		return image.Point{}, false
	}
	return image.Pt(xSum/count, ySum/count), true
}

// markerPixels exposes the bytes of an 8-bit single channel Mat. Non
// continuous Mats (regions) are cloned first.
func markerPixels(m gocv.Mat) ([]uint8, func(), error) {
	if m.Empty() {
		return nil, func() {}, fmt.Errorf("image is empty")
	}
	if m.Type() != gocv.MatTypeCV8U {
		return nil, func() {}, fmt.Errorf("expected 8-bit single channel image, got type %v", m.Type())
	}

	if pix, err := m.DataPtrUint8(); err == nil {
		return pix, func() {}, nil
	}

	clone := m.Clone()
	pix, err := clone.DataPtrUint8()
	if err != nil {
		clone.Close()
		return nil, func() {}, err
	}
	return pix, func() { clone.Close() }, nil
}

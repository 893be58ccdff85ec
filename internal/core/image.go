// Raw frame validation and the fixed image conversions of the pipeline
package core

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"eye-glint-tracker/internal/config"
)

// DownsampleFactor relates full resolution and downsampled coordinates
const DownsampleFactor = 2

var (
	// ErrInvalidFrame marks a frame that does not match the configured sensor
	ErrInvalidFrame = errors.New("invalid frame")
	// ErrDefectOutOfBounds marks a defect pixel that does not fit the frame
	ErrDefectOutOfBounds = errors.New("defect pixel out of bounds")
)

// ValidateFrame checks a raw sensor frame against the expected geometry
func ValidateFrame(frame gocv.Mat, want config.FrameConfig) error {
	if frame.Empty() {
		return fmt.Errorf("%w: frame is empty", ErrInvalidFrame)
	}

	if frame.Type() != gocv.MatTypeCV16U {
		return fmt.Errorf("%w: expected 16-bit single channel, got type %v with %d channels",
			ErrInvalidFrame, frame.Type(), frame.Channels())
	}

	if frame.Cols() != want.Width || frame.Rows() != want.Height {
		return fmt.Errorf("%w: expected %dx%d, got %dx%d",
			ErrInvalidFrame, want.Width, want.Height, frame.Cols(), frame.Rows())
	}

	return nil
}

// CorrectDefects overwrites each stuck pixel with its neighbour, in place.
// Nothing is written unless every defect fits the frame.
func CorrectDefects(frame gocv.Mat, defects []config.DefectPixel) error {
	bounds := image.Rect(0, 0, frame.Cols(), frame.Rows())
	for _, d := range defects {
		if !d.Point().In(bounds) || !d.Source().In(bounds) {
			return fmt.Errorf("%w: (%d,%d) in %dx%d frame",
				ErrDefectOutOfBounds, d.X, d.Y, frame.Cols(), frame.Rows())
		}
	}

	for _, d := range defects {
		src := d.Source()
		// raw 16-bit copy, the signed accessor does not alter the bits
		frame.SetShortAt(d.Y, d.X, frame.GetShortAt(src.Y, src.X))
	}
	return nil
}

// Downsample halves both dimensions with area interpolation
func Downsample(frame gocv.Mat) gocv.Mat {
	small := gocv.NewMat()
	gocv.Resize(frame, &small, image.Pt(frame.Cols()/DownsampleFactor, frame.Rows()/DownsampleFactor), 0, 0, gocv.InterpolationArea)
	return small
}

// Rescale8 converts to 8 bits with a linear multiplier, saturating at 255
func Rescale8(src gocv.Mat, scale float64) gocv.Mat {
	dst := gocv.NewMat()
	src.ConvertToWithParams(&dst, gocv.MatTypeCV8U, float32(scale), 0)
	return dst
}

// ToFullResolution projects a downsampled point onto the full frame
func ToFullResolution(p image.Point) image.Point {
	return p.Mul(DownsampleFactor)
}

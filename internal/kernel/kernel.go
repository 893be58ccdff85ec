// Precompiled glint kernel set used as a comparison detector
package kernel

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// ErrClosed is returned when a released Generators handle is used again.
var ErrClosed = errors.New("kernel: generators already released")

// Options tunes the kernel set. The zero value is not usable, start from DefaultOptions.
type Options struct {
	TopHatSize int     `yaml:"top_hat_size"` // diameter of the top-hat structuring element
	Threshold  float32 `yaml:"threshold"`    // minimum top-hat response kept as a glint
	GrowSize   int     `yaml:"grow_size"`    // dilation applied to the response mask, 0 disables
}

// DefaultOptions returns the kernel set tuned for the half resolution analysis image
func DefaultOptions() Options {
	return Options{
		TopHatSize: 9,
		Threshold:  60,
		GrowSize:   3,
	}
}

// Validate checks option ranges
func (o Options) Validate() error {
	if o.TopHatSize < 3 || o.TopHatSize > 63 {
		return fmt.Errorf("top-hat size must be between 3 and 63, got %d", o.TopHatSize)
	}
	if o.Threshold < 0 || o.Threshold > 255 {
		return fmt.Errorf("threshold must be between 0 and 255, got %.1f", o.Threshold)
	}
	if o.GrowSize < 0 || o.GrowSize > 31 {
		return fmt.Errorf("grow size must be between 0 and 31, got %d", o.GrowSize)
	}
	return nil
}

// Generators owns the kernel set's structuring elements. It is a single-owner
// handle: one tracker holds it and calls it from one goroutine at a time.
type Generators struct {
	opts   Options
	tophat gocv.Mat
	grow   gocv.Mat
	closed bool
}

// New acquires a kernel set. The caller must Close it.
func New(opts Options) (*Generators, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("kernel: %w", err)
	}

	g := &Generators{
		opts:   opts,
		tophat: gocv.GetStructuringElement(gocv.MorphEllipse, image.Pt(opts.TopHatSize, opts.TopHatSize)),
		grow:   gocv.NewMat(),
	}
	if g.tophat.Empty() {
		g.grow.Close()
		return nil, fmt.Errorf("kernel: failed to build %dx%d structuring element", opts.TopHatSize, opts.TopHatSize)
	}

	if opts.GrowSize > 0 {
		g.grow.Close()
		g.grow = gocv.GetStructuringElement(gocv.MorphRect, image.Pt(opts.GrowSize, opts.GrowSize))
	}

	return g, nil
}

// FindGlints returns an 8-bit image of the same size as src where glint-like
// spots are 255 and everything else is 0.
func (g *Generators) FindGlints(src gocv.Mat) (gocv.Mat, error) {
	if g.closed {
		return gocv.NewMat(), ErrClosed
	}
	if src.Empty() {
		return gocv.NewMat(), fmt.Errorf("kernel: input image is empty")
	}
	if src.Type() != gocv.MatTypeCV8U {
		return gocv.NewMat(), fmt.Errorf("kernel: expected 8-bit single channel input, got type %v", src.Type())
	}

	// White top-hat keeps structures smaller than the element: glints, not the iris
	response := gocv.NewMat()
	defer response.Close()
	gocv.MorphologyEx(src, &response, gocv.MorphTophat, g.tophat)

	out := gocv.NewMat()
	gocv.Threshold(response, &out, g.opts.Threshold, 255, gocv.ThresholdBinary)

	if !g.grow.Empty() {
		gocv.Dilate(out, &out, g.grow)
	}

	return out, nil
}

// Options returns the options the set was built with
func (g *Generators) Options() Options {
	return g.opts
}

// Close releases the kernel set. Releasing twice returns ErrClosed.
func (g *Generators) Close() error {
	if g.closed {
		return ErrClosed
	}
	g.closed = true

	var errs []error
	if err := g.tophat.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := g.grow.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("kernel: release: %w", errors.Join(errs...))
	}
	return nil
}

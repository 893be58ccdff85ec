// Glint candidate scanner over an adaptively binarized analysis image
package algorithms

import (
	"fmt"
	"image"
	"sort"

	"gocv.io/x/gocv"
)

const (
	ScannerName = "scanner"
	KernelName  = "kernel"
)

// ScanOptions holds the scanner's tuning constants
type ScanOptions struct {
	// Shadow is the horizontal distance around the first candidate inside
	// which further marker pixels are ignored (teeth, frames, headphones).
	Shadow int `yaml:"shadow"`
	// Neighbourhood is the half width of the centroid refinement window.
	Neighbourhood int `yaml:"neighbourhood"`
	// BlockSize and C parameterize the mean adaptive threshold.
	BlockSize int     `yaml:"block_size"`
	C         float32 `yaml:"c"`
}

// DefaultScanOptions returns the constants tuned for a 640x480 analysis image
func DefaultScanOptions() ScanOptions {
	return ScanOptions{
		Shadow:        100,
		Neighbourhood: 100,
		BlockSize:     11,
		C:             -30,
	}
}

// Validate checks option ranges
func (o ScanOptions) Validate() error {
	if o.Shadow < 0 {
		return fmt.Errorf("shadow must not be negative, got %d", o.Shadow)
	}
	if o.Neighbourhood < 1 {
		return fmt.Errorf("neighbourhood must be at least 1, got %d", o.Neighbourhood)
	}
	if o.BlockSize < 3 || o.BlockSize%2 == 0 {
		return fmt.Errorf("block_size must be odd and at least 3, got %d", o.BlockSize)
	}
	return nil
}

// Binarize applies an inverted mean adaptive threshold. Pixels brighter than
// their local mean by more than -C become 0, everything else 255. src is not
// modified.
func Binarize(src gocv.Mat, opts ScanOptions) gocv.Mat {
	dst := gocv.NewMat()
	gocv.AdaptiveThreshold(src, &dst, 255, gocv.AdaptiveThresholdMean, gocv.ThresholdBinaryInv, opts.BlockSize, opts.C)
	return dst
}

// ScanGlints binarizes a copy of the analysis image and returns up to two
// refined glints sorted by X. Fewer than two glints is a normal outcome.
func ScanGlints(analysis gocv.Mat, opts ScanOptions) []image.Point {
	if analysis.Empty() {
		return nil
	}
	mask := Binarize(analysis, opts)
	defer mask.Close()

	return LocateGlints(mask, opts)
}

// LocateGlints runs the candidate search on an already binarized marker image.
//
// Rows are scanned top to bottom, columns left to right. The first marker
// pixel is the first candidate. The second is the first later marker pixel
// more than Shadow columns away from the first candidate. Each candidate is
// then pulled to the centroid of the markers around it.
func LocateGlints(marker gocv.Mat, opts ScanOptions) []image.Point {
	pix, release, err := markerPixels(marker)
	if err != nil {
		return nil
	}
	defer release()

	cols, rows := marker.Cols(), marker.Rows()
	glints := firstSeparated(pix, cols, rows, opts.Shadow)

	for i, p := range glints {
		// p is itself a marker pixel, so the window is never empty
		glints[i], _ = refineCenter(pix, cols, rows, p, opts.Neighbourhood)
	}

	// consistent order so debug views don't jitter
	sort.SliceStable(glints, func(i, j int) bool {
		return glints[i].X < glints[j].X
	})

	return glints
}

func firstSeparated(pix []uint8, cols, rows, shadow int) []image.Point {
	var found []image.Point

	for y := 0; y < rows; y++ {
		row := pix[y*cols : (y+1)*cols]
		for x, v := range row {
			if v != 0 {
				continue
			}
			if len(found) == 0 {
				found = append(found, image.Pt(x, y))
				continue
			}
			if x > found[0].X+shadow || x < found[0].X-shadow {
				return append(found, image.Pt(x, y))
			}
		}
	}

	return found
}

// Scanner is the default detector
type Scanner struct {
	opts ScanOptions
}

func NewScanner(opts ScanOptions) *Scanner {
	return &Scanner{opts: opts}
}

func (s *Scanner) Name() string {
	return ScannerName
}

// Detect returns the glints and the binarized mask they were found in
func (s *Scanner) Detect(analysis gocv.Mat) (Detection, error) {
	if analysis.Empty() {
		return Detection{}, fmt.Errorf("scanner: analysis image is empty")
	}

	mask := Binarize(analysis, s.opts)
	return Detection{
		Glints: LocateGlints(mask, s.opts),
		Mask:   mask,
	}, nil
}

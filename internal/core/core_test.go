package core

import (
	"image"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"eye-glint-tracker/internal/config"
)

const (
	testBackground = 100
	testGlint      = 1000
)

// syntheticFrame returns a 16-bit frame with a uniform background and a 6x6
// bright spot around the full resolution projection of each glint.
func syntheticFrame(t *testing.T, cols, rows int, glints ...image.Point) gocv.Mat {
	t.Helper()
	frame := gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV16U)
	pix, err := frame.DataPtrUint16()
	if err != nil {
		t.Fatalf("frame data: %v", err)
	}
	for i := range pix {
		pix[i] = testBackground
	}
	for _, g := range glints {
		c := ToFullResolution(g)
		for y := c.Y - 2; y <= c.Y+3; y++ {
			for x := c.X - 2; x <= c.X+3; x++ {
				pix[y*cols+x] = testGlint
			}
		}
	}
	return frame
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// recordingSink remembers surface names in publish order
type recordingSink struct {
	shown     []string
	threshold int
}

func (s *recordingSink) Show(name string, img gocv.Mat) {
	s.shown = append(s.shown, name)
}

func (s *recordingSink) Threshold() int {
	return s.threshold
}

func testConfig() *config.Config {
	return config.Default()
}

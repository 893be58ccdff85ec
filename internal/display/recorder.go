// Sink that records surfaces to disk
package display

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"eye-glint-tracker/internal/core"
	"eye-glint-tracker/internal/io"
)

// Recorder writes selected surfaces to a directory as numbered PNG files.
// A frame starts with each main surface.
type Recorder struct {
	dir      string
	saver    *io.ImageLoader
	logger   logrus.FieldLogger
	surfaces map[string]bool
	frame    int
	written  int
}

// NewRecorder creates dir if needed. With no surfaces only the composite
// is recorded.
func NewRecorder(dir string, logger logrus.FieldLogger, surfaces ...string) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create record directory: %w", err)
	}
	if len(surfaces) == 0 {
		surfaces = []string{core.SurfaceMain}
	}

	r := &Recorder{
		dir:      dir,
		saver:    io.NewImageLoader(logger),
		logger:   logger,
		surfaces: make(map[string]bool, len(surfaces)),
	}
	for _, name := range surfaces {
		r.surfaces[name] = true
	}
	return r, nil
}

func (r *Recorder) Show(name string, img gocv.Mat) {
	if name == core.SurfaceMain {
		r.frame++
	}
	if !r.surfaces[name] {
		return
	}

	path := filepath.Join(r.dir, fmt.Sprintf("%06d_%s.png", r.frame, name))
	if err := r.saver.SaveImage(img, path); err != nil {
		r.logger.WithError(err).WithField("surface", name).Warn("Failed to record image")
		return
	}
	r.written++
}

// Written counts the files saved so far
func (r *Recorder) Written() int {
	return r.written
}

func (r *Recorder) Close() error {
	r.logger.WithFields(logrus.Fields{
		"dir":   r.dir,
		"files": r.written,
	}).Info("Recording finished")
	return nil
}

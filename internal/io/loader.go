// Frame loading, frame sources and image saving
package io

import (
	"fmt"
	stdio "io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// EightBitGain promotes 8-bit captures into the 10-bit range the pipeline's
// scales are tuned for.
const EightBitGain = 4

// ImageLoader handles image file operations
type ImageLoader struct {
	logger logrus.FieldLogger
}

func NewImageLoader(logger logrus.FieldLogger) *ImageLoader {
	return &ImageLoader{
		logger: logger,
	}
}

// LoadFrame reads a single channel frame keeping its bit depth. 8-bit files
// are promoted to 16 bits.
func (il *ImageLoader) LoadFrame(filepath string) (gocv.Mat, error) {
	il.logger.WithField("filepath", filepath).Debug("Loading frame")

	if !il.isSupportedImageFormat(filepath) {
		return gocv.NewMat(), fmt.Errorf("unsupported image format: %s", filepath)
	}

	mat := gocv.IMRead(filepath, gocv.IMReadAnyDepth)
	if mat.Empty() {
		return gocv.NewMat(), fmt.Errorf("failed to load image: %s", filepath)
	}

	frame, err := ToFrame(mat)
	mat.Close()
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("%s: %w", filepath, err)
	}

	il.logger.WithFields(logrus.Fields{
		"filepath": filepath,
		"width":    frame.Cols(),
		"height":   frame.Rows(),
	}).Debug("Frame loaded")

	return frame, nil
}

func (il *ImageLoader) SaveImage(mat gocv.Mat, filepath string) error {
	il.logger.WithField("filepath", filepath).Debug("Saving image")

	if mat.Empty() {
		return fmt.Errorf("cannot save empty image")
	}

	if !il.isSupportedImageFormat(filepath) {
		return fmt.Errorf("unsupported image format: %s", filepath)
	}

	if !gocv.IMWrite(filepath, mat) {
		return fmt.Errorf("failed to save image: %s", filepath)
	}

	return nil
}

// ToFrame converts any single or three channel 8/16-bit image into a new
// 16-bit single channel frame. src is not modified.
func ToFrame(src gocv.Mat) (gocv.Mat, error) {
	gray := gocv.NewMat()
	defer gray.Close()

	switch src.Channels() {
	case 1:
		src.CopyTo(&gray)
	case 3:
		gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)
	case 4:
		gocv.CvtColor(src, &gray, gocv.ColorBGRAToGray)
	default:
		return gocv.NewMat(), fmt.Errorf("unsupported channel count: %d", src.Channels())
	}

	frame := gocv.NewMat()
	switch gray.Type() {
	case gocv.MatTypeCV16U:
		gray.CopyTo(&frame)
	case gocv.MatTypeCV8U:
		gray.ConvertToWithParams(&frame, gocv.MatTypeCV16U, EightBitGain, 0)
	default:
		frame.Close()
		return gocv.NewMat(), fmt.Errorf("unsupported image type: %v", gray.Type())
	}
	return frame, nil
}

func (il *ImageLoader) isSupportedImageFormat(filepath string) bool {
	ext := strings.ToLower(getFileExtension(filepath))
	supportedFormats := []string{".png", ".tiff", ".tif", ".pgm", ".bmp", ".jpg", ".jpeg"}

	for _, format := range supportedFormats {
		if ext == format {
			return true
		}
	}

	return false
}

func getFileExtension(filepath string) string {
	for i := len(filepath) - 1; i >= 0; i-- {
		if filepath[i] == '.' {
			return filepath[i:]
		}
		if filepath[i] == '/' || filepath[i] == '\\' {
			break
		}
	}
	return ""
}

// FrameSource yields raw frames one at a time. Next returns io.EOF when the
// source is exhausted. Each returned Mat belongs to the caller.
type FrameSource interface {
	Next() (gocv.Mat, error)
	Close() error
}

// DirSource replays the image files of a directory in name order
type DirSource struct {
	loader *ImageLoader
	files  []string
	next   int
}

// NewDirSource lists the supported image files in dir
func NewDirSource(dir string, loader *ImageLoader) (*DirSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read frame directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if loader.isSupportedImageFormat(path) {
			files = append(files, path)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no frames found in %s", dir)
	}
	sort.Strings(files)

	return &DirSource{loader: loader, files: files}, nil
}

// Len returns the number of frames in the directory
func (s *DirSource) Len() int {
	return len(s.files)
}

func (s *DirSource) Next() (gocv.Mat, error) {
	if s.next >= len(s.files) {
		return gocv.NewMat(), stdio.EOF
	}
	path := s.files[s.next]
	s.next++
	return s.loader.LoadFrame(path)
}

func (s *DirSource) Close() error {
	s.next = len(s.files)
	return nil
}

// DeviceSource reads frames from a capture device or video file
type DeviceSource struct {
	capture *gocv.VideoCapture
	buf     gocv.Mat
}

// NewDeviceSource opens a device id ("0") or a video file path
func NewDeviceSource(device string) (*DeviceSource, error) {
	capture, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("open capture %q: %w", device, err)
	}
	return &DeviceSource{capture: capture, buf: gocv.NewMat()}, nil
}

func (s *DeviceSource) Next() (gocv.Mat, error) {
	if ok := s.capture.Read(&s.buf); !ok || s.buf.Empty() {
		return gocv.NewMat(), stdio.EOF
	}
	return ToFrame(s.buf)
}

func (s *DeviceSource) Close() error {
	s.buf.Close()
	return s.capture.Close()
}

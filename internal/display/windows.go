// Highgui windows sink with the edge threshold trackbar
package display

import (
	"errors"
	"sync"

	"gocv.io/x/gocv"

	"eye-glint-tracker/internal/algorithms"
	"eye-glint-tracker/internal/core"
)

// TrackbarName labels the edge threshold trackbar on the main window
const TrackbarName = "Canny Threshold:"

// Windows shows every surface in its own highgui window. Windows are opened
// on first use, except main which carries the threshold trackbar. All calls
// must come from the goroutine that created it.
type Windows struct {
	mu       sync.Mutex
	windows  map[string]*gocv.Window
	trackbar *gocv.Trackbar
	delay    int
	closed   bool
}

// NewWindows opens the main window with its trackbar at threshold. delay is
// the per frame WaitKey time in milliseconds.
func NewWindows(threshold, delay int) *Windows {
	mainWindow := gocv.NewWindow(core.SurfaceMain)
	trackbar := mainWindow.CreateTrackbar(TrackbarName, algorithms.MaxEdgeThreshold)
	trackbar.SetPos(algorithms.ClampEdgeThreshold(threshold))

	if delay < 1 {
		delay = 1
	}

	return &Windows{
		windows:  map[string]*gocv.Window{core.SurfaceMain: mainWindow},
		trackbar: trackbar,
		delay:    delay,
	}
}

func (w *Windows) Show(name string, img gocv.Mat) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || img.Empty() {
		return
	}

	window, ok := w.windows[name]
	if !ok {
		window = gocv.NewWindow(name)
		w.windows[name] = window
	}
	window.IMShow(img)
}

// Threshold reads the trackbar
func (w *Windows) Threshold() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return 0
	}
	return w.trackbar.GetPos()
}

// Wait pumps the highgui event loop once and returns the pressed key, or -1
func (w *Windows) Wait() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return -1
	}
	return w.windows[core.SurfaceMain].WaitKey(w.delay)
}

func (w *Windows) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	var errs []error
	for _, window := range w.windows {
		if err := window.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

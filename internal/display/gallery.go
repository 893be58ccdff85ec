// Fyne gallery sink
package display

import (
	"fmt"
	"image"
	"sync/atomic"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"eye-glint-tracker/internal/algorithms"
	"eye-glint-tracker/internal/core"
)

// GallerySurfaces are the surfaces laid out by default: the composite, the
// comparison image and two eye regions with their edge maps.
var GallerySurfaces = []string{
	core.SurfaceMain,
	core.SurfaceComparison,
	core.RegionSurface(0),
	core.EdgeSurface(0),
	core.RegionSurface(1),
	core.EdgeSurface(1),
}

// Gallery shows the tracker surfaces as cards in one fyne window with a
// threshold slider. Show may be called from any goroutine.
type Gallery struct {
	window    fyne.Window
	logger    logrus.FieldLogger
	images    map[string]*canvas.Image
	slider    *widget.Slider
	status    *widget.Label
	threshold atomic.Int32
	closed    atomic.Bool
	frames    atomic.Int64
}

// NewGallery builds the gallery window on app. Surfaces not listed are
// ignored by Show.
func NewGallery(app fyne.App, surfaces []string, threshold int, logger logrus.FieldLogger) *Gallery {
	g := &Gallery{
		window: app.NewWindow("Glint Tracker"),
		logger: logger,
		images: make(map[string]*canvas.Image, len(surfaces)),
	}
	g.threshold.Store(int32(algorithms.ClampEdgeThreshold(threshold)))

	cards := make([]fyne.CanvasObject, 0, len(surfaces))
	for _, name := range surfaces {
		img := canvas.NewImageFromImage(image.NewGray(image.Rect(0, 0, 1, 1)))
		img.FillMode = canvas.ImageFillContain
		img.SetMinSize(fyne.NewSize(320, 240))
		g.images[name] = img
		cards = append(cards, widget.NewCard(name, "", img))
	}

	g.slider = widget.NewSlider(0, algorithms.MaxEdgeThreshold)
	g.slider.Step = 1
	g.slider.SetValue(float64(g.threshold.Load()))
	g.slider.OnChanged = func(v float64) {
		g.threshold.Store(int32(v))
	}

	g.status = widget.NewLabel("Waiting for frames")

	controls := container.NewBorder(nil, nil, widget.NewLabel(TrackbarName), nil, g.slider)
	g.window.SetContent(container.NewBorder(
		controls,
		g.status,
		nil,
		nil,
		container.NewGridWithColumns(2, cards...),
	))
	g.window.Resize(fyne.NewSize(1000, 900))

	return g
}

// Window exposes the gallery window so the caller can run it
func (g *Gallery) Window() fyne.Window {
	return g.window
}

func (g *Gallery) Show(name string, img gocv.Mat) {
	if g.closed.Load() || img.Empty() {
		return
	}
	target, ok := g.images[name]
	if !ok {
		return
	}

	converted, err := img.ToImage()
	if err != nil {
		g.logger.WithError(err).WithField("surface", name).Error("Failed to convert Mat to image")
		return
	}

	frames := g.frames.Load()
	if name == core.SurfaceMain {
		frames = g.frames.Add(1)
	}

	fyne.Do(func() {
		target.Image = converted
		target.Refresh()
		if name == core.SurfaceMain {
			g.status.SetText(fmt.Sprintf("Frame %d", frames))
		}
	})
}

// Threshold returns the slider position
func (g *Gallery) Threshold() int {
	return int(g.threshold.Load())
}

// Close stops accepting images. The window stays open until the user closes it.
func (g *Gallery) Close() error {
	g.closed.Store(true)
	return nil
}

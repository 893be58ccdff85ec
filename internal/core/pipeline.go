// Per-frame glint tracking pipeline
package core

import (
	"fmt"
	"image"
	"image/color"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"eye-glint-tracker/internal/algorithms"
	"eye-glint-tracker/internal/config"
	"eye-glint-tracker/internal/kernel"
	"eye-glint-tracker/internal/metrics"
)

// Surface names the tracker publishes to
const (
	SurfaceMain       = "main"
	SurfaceComparison = "comparison"
)

// RegionSurface names the display surface of the i-th eye region
func RegionSurface(i int) string {
	return strconv.Itoa(i)
}

// EdgeSurface names the display surface of the i-th region's edge map
func EdgeSurface(i int) string {
	return strconv.Itoa(i) + "_edges"
}

// Sink receives images by surface name. It has no error path: a closed or
// missing surface is the sink's business.
type Sink interface {
	Show(name string, img gocv.Mat)
}

// ThresholdSource is implemented by sinks that expose an interactive edge
// threshold.
type ThresholdSource interface {
	Threshold() int
}

type discardSink struct{}

func (discardSink) Show(string, gocv.Mat) {}

var glintMarker = color.RGBA{R: 255, G: 0, B: 255, A: 0}

// Result is everything one frame produced. The caller owns it and must Close it.
type Result struct {
	Frame      int
	Glints     []image.Point // downsampled space, ascending X
	Regions    []EyeRegion
	Composite  gocv.Mat // 3-channel debug view
	Comparison gocv.Mat // comparison detector mask, empty when disabled
	Elapsed    time.Duration
}

// Close releases every image of the result
func (r *Result) Close() {
	for i := range r.Regions {
		r.Regions[i].Close()
	}
	r.Composite.Close()
	r.Comparison.Close()
}

// Tracker processes frames of one tracking session. It owns the session's
// kernel generators and is not safe for concurrent use.
type Tracker struct {
	cfg       *config.Config
	logger    *logrus.Entry
	sessionID string
	sink      Sink

	gens       *kernel.Generators
	detector   algorithms.Detector
	comparison algorithms.Detector

	evaluator *metrics.Evaluator
	timings   *metrics.Timings
	frames    int
	started   bool
}

// NewTracker validates cfg and acquires the session's resources. A nil sink
// discards everything.
func NewTracker(cfg *config.Config, sink Sink, logger logrus.FieldLogger) (_ *Tracker, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if sink == nil {
		sink = discardSink{}
	}

	sessionID := uuid.NewString()
	t := &Tracker{
		cfg:       cfg,
		logger:    logger.WithField("session", sessionID),
		sessionID: sessionID,
		sink:      sink,
		evaluator: metrics.NewEvaluator(),
		timings:   metrics.NewTimings(cfg.TimingWindow),
	}

	defer func() {
		if err != nil {
			t.Close()
		}
	}()

	if cfg.NeedsKernel() {
		gens, err := kernel.New(cfg.Kernel)
		if err != nil {
			return nil, fmt.Errorf("acquire kernel generators: %w", err)
		}
		t.gens = gens
	}

	deps := algorithms.Deps{Scan: cfg.Scan, Kernel: t.gens}

	t.detector, err = algorithms.NewDetector(cfg.Detector, deps)
	if err != nil {
		return nil, fmt.Errorf("build detector: %w", err)
	}

	if cfg.Comparison != "" {
		t.comparison, err = algorithms.NewDetector(cfg.Comparison, deps)
		if err != nil {
			return nil, fmt.Errorf("build comparison detector: %w", err)
		}
	}

	t.logger.WithFields(logrus.Fields{
		"detector":   cfg.Detector,
		"comparison": cfg.Comparison,
		"frame":      fmt.Sprintf("%dx%d", cfg.Frame.Width, cfg.Frame.Height),
		"defects":    len(cfg.DefectPixels),
	}).Info("Tracking session started")
	t.started = true

	return t, nil
}

// SessionID identifies the session in logs
func (t *Tracker) SessionID() string {
	return t.sessionID
}

// Timings exposes the session's detection timings
func (t *Tracker) Timings() *metrics.Timings {
	return t.timings
}

// ProcessFrame runs the pipeline on one raw 16-bit frame. Defect pixels are
// corrected in place. A frame without glints is not an error.
func (t *Tracker) ProcessFrame(frame gocv.Mat) (*Result, error) {
	start := time.Now()
	t.frames++
	log := t.logger.WithField("frame", t.frames)

	if err := ValidateFrame(frame, t.cfg.Frame); err != nil {
		log.WithError(err).Error("Frame rejected")
		return nil, err
	}
	if err := CorrectDefects(frame, t.cfg.DefectPixels); err != nil {
		log.WithError(err).Error("Frame rejected")
		return nil, err
	}

	small := Downsample(frame)
	defer small.Close()

	analysis := Rescale8(small, t.cfg.AnalysisScale)
	defer analysis.Close()

	primary, err := t.detector.Detect(analysis)
	if err != nil {
		log.WithError(err).Error("Glint detection failed")
		return nil, fmt.Errorf("detect glints: %w", err)
	}
	defer primary.Close()

	comparison := t.compare(analysis, log)

	elapsed := time.Since(start)
	t.timings.Record(elapsed)
	log.WithFields(logrus.Fields{
		"elapsed_ms": elapsed.Milliseconds(),
		"glints":     len(primary.Glints),
	}).Info("Glints detected")

	if !comparison.Empty() && log.Logger.IsLevelEnabled(logrus.DebugLevel) {
		log.WithFields(toFields(t.evaluator.CalculateAll(primary.Mask, comparison))).
			Debug("Detector agreement")
	}

	result := &Result{
		Frame:      t.frames,
		Glints:     primary.Glints,
		Comparison: comparison,
		Elapsed:    elapsed,
	}

	threshold := t.edgeThreshold()
	bounds := image.Rect(0, 0, frame.Cols(), frame.Rows())
	for i, glint := range primary.Glints {
		region, ok := t.extractRegion(frame, bounds, i, glint, threshold)
		if !ok {
			log.WithField("glint", glint).Warn("Eye region outside frame")
			continue
		}
		result.Regions = append(result.Regions, region)
	}

	result.Composite = t.compose(small, primary)
	t.publish(result)

	return result, nil
}

// compare runs the comparison detector. Failures are logged and replaced by
// a blank mask: the comparison view is diagnostic only.
func (t *Tracker) compare(analysis gocv.Mat, log *logrus.Entry) gocv.Mat {
	if t.comparison == nil {
		return gocv.NewMat()
	}

	found, err := t.comparison.Detect(analysis)
	if err != nil {
		found.Close()
		log.WithError(err).WithField("detector", t.comparison.Name()).
			Warn("Comparison detector failed, showing blank image")
		return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 0, 0, 0), analysis.Rows(), analysis.Cols(), gocv.MatTypeCV8U)
	}
	return found.Mask
}

func (t *Tracker) edgeThreshold() int {
	if src, ok := t.sink.(ThresholdSource); ok {
		return algorithms.ClampEdgeThreshold(src.Threshold())
	}
	return t.cfg.EdgeThreshold
}

func (t *Tracker) extractRegion(frame gocv.Mat, bounds image.Rectangle, i int, glint image.Point, threshold int) (EyeRegion, bool) {
	roi := EyeRegionBounds(glint, t.cfg.Region.Size(), bounds)
	if roi.Empty() {
		return EyeRegion{}, false
	}

	view := frame.Region(roi)
	defer view.Close()

	img := Rescale8(view, t.cfg.DisplayScale)
	if i == 0 && t.cfg.Region.BlurFirst {
		soft := algorithms.Soften(img)
		img.Close()
		img = soft
	}

	return EyeRegion{
		Index:  i,
		Glint:  glint,
		Center: ToFullResolution(glint),
		Bounds: roi,
		Image:  img,
		Edges:  algorithms.EdgeMap(img, threshold),
	}, true
}

// compose builds {min(display, mask), display, min(display, mask)} and marks
// every glint.
func (t *Tracker) compose(small gocv.Mat, primary algorithms.Detection) gocv.Mat {
	display := Rescale8(small, t.cfg.DisplayScale)
	defer display.Close()

	overlay := gocv.NewMat()
	defer overlay.Close()
	gocv.Min(display, primary.Mask, &overlay)

	composite := gocv.NewMat()
	gocv.Merge([]gocv.Mat{overlay, display, overlay}, &composite)

	for _, glint := range primary.Glints {
		gocv.Circle(&composite, glint, 3, glintMarker, 1)
	}
	return composite
}

func (t *Tracker) publish(result *Result) {
	t.sink.Show(SurfaceMain, result.Composite)
	if !result.Comparison.Empty() {
		t.sink.Show(SurfaceComparison, result.Comparison)
	}
	for _, region := range result.Regions {
		t.sink.Show(RegionSurface(region.Index), region.Image)
		t.sink.Show(EdgeSurface(region.Index), region.Edges)
	}
}

// Close releases the kernel generators. Release failures are logged and
// returned, never panicked on. Only a session that started logs a summary.
func (t *Tracker) Close() error {
	if t.started {
		t.started = false
		summary := t.timings.Summary()
		t.logger.WithFields(logrus.Fields{
			"frames":    summary.Frames,
			"mean_ms":   summary.Mean.Milliseconds(),
			"p95_ms":    summary.P95.Milliseconds(),
			"stddev_ms": summary.StdDev.Milliseconds(),
		}).Info("Tracking session closed")
	}

	if t.gens == nil {
		return nil
	}
	gens := t.gens
	t.gens = nil
	if err := gens.Close(); err != nil {
		t.logger.WithError(err).Error("Failed to release kernel generators")
		return err
	}
	return nil
}

func toFields(values map[string]float64) logrus.Fields {
	fields := make(logrus.Fields, len(values))
	for name, value := range values {
		fields[name] = value
	}
	return fields
}

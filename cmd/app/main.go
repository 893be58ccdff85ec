// Eye glint tracker
//
// Reads 16-bit near-eye camera frames from a directory or a capture device,
// locates the two corneal glints of every frame and shows the debug views.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"fyne.io/fyne/v2/app"
	"github.com/sirupsen/logrus"

	"eye-glint-tracker/internal/config"
	"eye-glint-tracker/internal/core"
	"eye-glint-tracker/internal/display"
	imageio "eye-glint-tracker/internal/io"
)

const (
	AppName    = "Eye Glint Tracker"
	AppID      = "org.eyetracking.glint-tracker"
	AppVersion = "1.0.0"
)

const keyEscape = 27

type options struct {
	configPath string
	debug      bool
	framesDir  string
	device     string
	view       string
	recordDir  string
	timingPlot string
	detector   string
	comparison string
	threshold  int
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "YAML configuration file")
	flag.BoolVar(&opts.debug, "debug", false, "Enable debug mode with verbose logging")
	flag.StringVar(&opts.framesDir, "frames", "", "Directory of recorded frames")
	flag.StringVar(&opts.device, "device", "", "Capture device id or video file")
	flag.StringVar(&opts.view, "display", "windows", "Display: windows, gallery or none")
	flag.StringVar(&opts.recordDir, "record", "", "Directory to record composites to")
	flag.StringVar(&opts.timingPlot, "timing-plot", "", "Write a detection time histogram (png/svg) at exit")
	flag.StringVar(&opts.detector, "detector", "", "Override the primary detector")
	flag.StringVar(&opts.comparison, "comparison", "", "Override the comparison detector, \"none\" disables it")
	flag.IntVar(&opts.threshold, "threshold", -1, "Override the initial edge threshold")
	flag.Parse()

	logger := initLogger(opts.debug)
	logger.WithFields(logrus.Fields{
		"version":    AppVersion,
		"debug_mode": opts.debug,
	}).Info("Starting " + AppName)

	if err := start(opts, logger); err != nil {
		logger.WithError(err).Error("Tracker failed")
		os.Exit(1)
	}

	logger.Info("Application shutting down gracefully")
}

func start(opts options, logger *logrus.Logger) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	source, err := openSource(opts, logger)
	if err != nil {
		return err
	}
	defer source.Close()

	session := sessionOptions{cfg: cfg, logger: logger, timingPlot: opts.timingPlot}

	var sinks []display.Sink
	if opts.recordDir != "" {
		rec, err := display.NewRecorder(opts.recordDir, logger)
		if err != nil {
			return err
		}
		sinks = append(sinks, rec)
	}

	switch opts.view {
	case "none":
		return run(context.Background(), session, source, display.Combine(sinks...), nil)

	case "windows":
		windows := display.NewWindows(cfg.EdgeThreshold, 1)
		sink := display.Combine(append([]display.Sink{windows}, sinks...)...)
		return run(context.Background(), session, source, sink, func() bool {
			key := windows.Wait()
			return key != keyEscape && key != 'q'
		})

	case "gallery":
		fyneApp := app.NewWithID(AppID)
		gallery := display.NewGallery(fyneApp, display.GallerySurfaces, cfg.EdgeThreshold, logger)
		sink := display.Combine(append([]display.Sink{gallery}, sinks...)...)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		gallery.Window().SetOnClosed(cancel)

		done := make(chan error, 1)
		go func() {
			done <- run(ctx, session, source, sink, nil)
		}()
		gallery.Window().ShowAndRun()
		cancel()
		return <-done

	default:
		return fmt.Errorf("unknown display %q", opts.view)
	}
}

func loadConfig(opts options) (*config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if opts.detector != "" {
		cfg.Detector = opts.detector
	}
	switch opts.comparison {
	case "":
	case "none":
		cfg.Comparison = ""
	default:
		cfg.Comparison = opts.comparison
	}
	if opts.threshold >= 0 {
		cfg.EdgeThreshold = opts.threshold
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func openSource(opts options, logger *logrus.Logger) (imageio.FrameSource, error) {
	switch {
	case opts.framesDir != "" && opts.device != "":
		return nil, errors.New("use either -frames or -device")
	case opts.framesDir != "":
		source, err := imageio.NewDirSource(opts.framesDir, imageio.NewImageLoader(logger))
		if err != nil {
			return nil, err
		}
		logger.WithFields(logrus.Fields{
			"dir":    opts.framesDir,
			"frames": source.Len(),
		}).Info("Replaying recorded frames")
		return source, nil
	case opts.device != "":
		logger.WithField("device", opts.device).Info("Opening capture device")
		return imageio.NewDeviceSource(opts.device)
	default:
		return nil, errors.New("no frame source, set -frames or -device")
	}
}

type sessionOptions struct {
	cfg        *config.Config
	logger     *logrus.Logger
	timingPlot string
}

// run processes frames until the source is exhausted, ctx is cancelled or
// poll returns false. Frames that fail their preconditions are skipped.
func run(ctx context.Context, session sessionOptions, source imageio.FrameSource, sink display.Sink, poll func() bool) (err error) {
	logger := session.logger
	defer func() {
		if closeErr := sink.Close(); closeErr != nil {
			logger.WithError(closeErr).Error("Failed to close display")
		}
	}()

	tracker, err := core.NewTracker(session.cfg, sink, logger)
	if err != nil {
		return err
	}
	logMemoryUsage(logger, "session start")
	defer func() {
		logMemoryUsage(logger, "session end")
		if closeErr := tracker.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	for ctx.Err() == nil {
		frame, err := source.Next()
		if errors.Is(err, io.EOF) {
			frame.Close()
			break
		}
		if err != nil {
			frame.Close()
			logger.WithError(err).Error("Failed to read frame")
			continue
		}

		result, err := tracker.ProcessFrame(frame)
		frame.Close()
		switch {
		case errors.Is(err, core.ErrInvalidFrame), errors.Is(err, core.ErrDefectOutOfBounds):
			// logged by the tracker
		case err != nil:
			return err
		default:
			result.Close()
		}

		if poll != nil && !poll() {
			logger.Info("Stopped by user")
			break
		}
	}

	if session.timingPlot != "" && tracker.Timings().Frames() > 0 {
		if err := tracker.Timings().SavePlot(session.timingPlot); err != nil {
			logger.WithError(err).Warn("Failed to save timing plot")
		} else {
			logger.WithField("path", session.timingPlot).Info("Timing plot saved")
		}
	}
	return nil
}

// initLogger initializes the logger with appropriate level
func initLogger(debugMode bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if debugMode {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
		logger.Debug("Debug logging enabled")
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	return logger
}

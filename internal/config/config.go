// Tracking session configuration
package config

import (
	"fmt"
	"image"
	"os"

	"gopkg.in/yaml.v3"

	"eye-glint-tracker/internal/algorithms"
	"eye-glint-tracker/internal/kernel"
)

// Config holds everything a tracking session needs. Values are fixed for the
// lifetime of a session except the edge threshold, which a display may
// override per frame.
type Config struct {
	Frame FrameConfig `yaml:"frame"`

	// DefectPixels are stuck sensor pixels overwritten with their horizontal
	// neighbour before any processing. Empty for healthy sensors.
	DefectPixels []DefectPixel `yaml:"defect_pixels"`

	// AnalysisScale maps the downsampled 16-bit image to the 8-bit image the
	// detectors see. DisplayScale does the same for eye regions and the
	// composite's green channel.
	AnalysisScale float64 `yaml:"analysis_scale"`
	DisplayScale  float64 `yaml:"display_scale"`

	Scan   algorithms.ScanOptions `yaml:"scan"`
	Kernel kernel.Options         `yaml:"kernel"`
	Region RegionConfig           `yaml:"region"`

	// EdgeThreshold is the Canny low threshold, the high one is twice it.
	EdgeThreshold int `yaml:"edge_threshold"`

	// Detector drives region extraction. Comparison is shown side by side
	// only, empty disables it.
	Detector   string `yaml:"detector"`
	Comparison string `yaml:"comparison"`

	// TimingWindow is how many frame timings are kept for statistics.
	TimingWindow int `yaml:"timing_window"`
}

// FrameConfig is the expected sensor geometry
type FrameConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Bounds returns the full resolution frame rectangle
func (f FrameConfig) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.Width, f.Height)
}

// DefectPixel is a stuck pixel in full resolution coordinates
type DefectPixel struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

// Point returns the defect coordinate
func (d DefectPixel) Point() image.Point {
	return image.Pt(d.X, d.Y)
}

// Source is the neighbour whose value replaces the defect: the pixel to the
// left, or to the right on the first column.
func (d DefectPixel) Source() image.Point {
	if d.X == 0 {
		return image.Pt(d.X+1, d.Y)
	}
	return image.Pt(d.X-1, d.Y)
}

// RegionConfig sizes the eye regions cut around each glint
type RegionConfig struct {
	Width     int  `yaml:"width"`
	Height    int  `yaml:"height"`
	BlurFirst bool `yaml:"blur_first"`
}

// Size returns the region size as a point
func (r RegionConfig) Size() image.Point {
	return image.Pt(r.Width, r.Height)
}

// Default returns the configuration tuned for a 10-bit near-eye camera
func Default() *Config {
	return &Config{
		Frame: FrameConfig{
			Width:  1280,
			Height: 960,
		},
		AnalysisScale: 256.0 / 1024.0,
		DisplayScale:  (265.0 / 1024.0) * 2,
		Scan:          algorithms.DefaultScanOptions(),
		Kernel:        kernel.DefaultOptions(),
		Region: RegionConfig{
			Width:     200,
			Height:    160,
			BlurFirst: true,
		},
		EdgeThreshold: 5,
		Detector:      algorithms.ScannerName,
		Comparison:    algorithms.KernelName,
		TimingWindow:  300,
	}
}

// Load reads a YAML file over the defaults
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and cross-field constraints
func (c *Config) Validate() error {
	if c.Frame.Width < 2 || c.Frame.Height < 2 {
		return fmt.Errorf("frame size must be at least 2x2, got %dx%d", c.Frame.Width, c.Frame.Height)
	}
	if c.Frame.Width%2 != 0 || c.Frame.Height%2 != 0 {
		return fmt.Errorf("frame size must be even, got %dx%d", c.Frame.Width, c.Frame.Height)
	}

	bounds := c.Frame.Bounds()
	for _, d := range c.DefectPixels {
		if !d.Point().In(bounds) || !d.Source().In(bounds) {
			return fmt.Errorf("defect pixel (%d,%d) outside %dx%d frame", d.X, d.Y, c.Frame.Width, c.Frame.Height)
		}
	}

	if c.AnalysisScale <= 0 || c.AnalysisScale > 1 {
		return fmt.Errorf("analysis_scale must be in (0, 1], got %g", c.AnalysisScale)
	}
	if c.DisplayScale <= 0 || c.DisplayScale > 1 {
		return fmt.Errorf("display_scale must be in (0, 1], got %g", c.DisplayScale)
	}

	if err := c.Scan.Validate(); err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	if err := c.Kernel.Validate(); err != nil {
		return fmt.Errorf("kernel: %w", err)
	}

	if c.Region.Width < 1 || c.Region.Height < 1 {
		return fmt.Errorf("region size must be positive, got %dx%d", c.Region.Width, c.Region.Height)
	}
	if c.EdgeThreshold < 0 || c.EdgeThreshold > algorithms.MaxEdgeThreshold {
		return fmt.Errorf("edge_threshold must be between 0 and %d, got %d", algorithms.MaxEdgeThreshold, c.EdgeThreshold)
	}

	if !algorithms.IsValidDetector(c.Detector) {
		return fmt.Errorf("unknown detector %q, expected one of %v", c.Detector, algorithms.DetectorNames())
	}
	if c.Comparison != "" && !algorithms.IsValidDetector(c.Comparison) {
		return fmt.Errorf("unknown comparison detector %q, expected one of %v", c.Comparison, algorithms.DetectorNames())
	}

	if c.TimingWindow < 1 {
		return fmt.Errorf("timing_window must be at least 1, got %d", c.TimingWindow)
	}
	return nil
}

// NeedsKernel reports whether any configured detector uses the kernel set
func (c *Config) NeedsKernel() bool {
	return c.Detector == algorithms.KernelName || c.Comparison == algorithms.KernelName
}

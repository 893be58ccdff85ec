package config

import (
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eye-glint-tracker/internal/algorithms"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 1280, cfg.Frame.Width)
	assert.Equal(t, 960, cfg.Frame.Height)
	assert.Empty(t, cfg.DefectPixels)
	assert.InDelta(t, 0.25, cfg.AnalysisScale, 1e-9)
	assert.InDelta(t, 0.5176, cfg.DisplayScale, 1e-3)
	assert.Equal(t, 100, cfg.Scan.Shadow)
	assert.Equal(t, 100, cfg.Scan.Neighbourhood)
	assert.Equal(t, 11, cfg.Scan.BlockSize)
	assert.Equal(t, float32(-30), cfg.Scan.C)
	assert.Equal(t, image.Pt(200, 160), cfg.Region.Size())
	assert.Equal(t, 5, cfg.EdgeThreshold)
	assert.Equal(t, algorithms.ScannerName, cfg.Detector)
	assert.True(t, cfg.NeedsKernel())
}

func TestParse(t *testing.T) {
	data := []byte(`
frame:
  width: 640
  height: 480
defect_pixels:
  - {x: 627, y: 283}
edge_threshold: 12
scan:
  shadow: 50
comparison: ""
`)
	cfg, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, 640, cfg.Frame.Width)
	assert.Equal(t, []DefectPixel{{X: 627, Y: 283}}, cfg.DefectPixels)
	assert.Equal(t, image.Pt(626, 283), cfg.DefectPixels[0].Source())
	assert.Equal(t, 12, cfg.EdgeThreshold)
	assert.Equal(t, 50, cfg.Scan.Shadow)
	// untouched fields keep their defaults
	assert.Equal(t, 100, cfg.Scan.Neighbourhood)
	assert.Equal(t, 11, cfg.Scan.BlockSize)
	assert.False(t, cfg.NeedsKernel())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracker.yaml")
	require.NoError(t, os.WriteFile(path, []byte("detector: kernel\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, algorithms.KernelName, cfg.Detector)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"odd frame", func(c *Config) { c.Frame.Width = 1279 }},
		{"defect outside frame", func(c *Config) { c.DefectPixels = []DefectPixel{{X: 1280, Y: 10}} }},
		{"analysis scale", func(c *Config) { c.AnalysisScale = 0 }},
		{"display scale", func(c *Config) { c.DisplayScale = 2 }},
		{"even block size", func(c *Config) { c.Scan.BlockSize = 12 }},
		{"kernel top hat", func(c *Config) { c.Kernel.TopHatSize = 0 }},
		{"region", func(c *Config) { c.Region.Height = 0 }},
		{"edge threshold", func(c *Config) { c.EdgeThreshold = 101 }},
		{"detector", func(c *Config) { c.Detector = "halide" }},
		{"comparison", func(c *Config) { c.Comparison = "halide" }},
		{"timing window", func(c *Config) { c.TimingWindow = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	t.Run("defect on first column uses right neighbour", func(t *testing.T) {
		cfg := Default()
		cfg.DefectPixels = []DefectPixel{{X: 0, Y: 5}}
		assert.NoError(t, cfg.Validate())
		assert.Equal(t, image.Pt(1, 5), cfg.DefectPixels[0].Source())
	})

	t.Run("parse rejects invalid yaml values", func(t *testing.T) {
		_, err := Parse([]byte("edge_threshold: -1\n"))
		assert.Error(t, err)
	})
}

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/yolopost/internal/detector"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.Output.Format)
	assert.Equal(t, 4, cfg.Batch.Workers)
	assert.Equal(t, []float32{12, 16, 19, 36, 40, 28}, cfg.Decoder.Anchors[0])

	dc, err := cfg.ToDetectorConfig()
	require.NoError(t, err)
	assert.Equal(t, detector.DefaultConfig(), dc)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad log level", func(c *Config) { c.LogLevel = "trace" }, "invalid log level"},
		{"bad format", func(c *Config) { c.Output.Format = "xml" }, "invalid output format"},
		{"bad precision", func(c *Config) { c.Output.ConfidencePrecision = 11 }, "confidence precision"},
		{"no workers", func(c *Config) { c.Batch.Workers = 0 }, "batch workers"},
		{"odd anchors", func(c *Config) { c.Decoder.Anchors[1] = []float32{1, 2, 3} }, "w,h pairs"},
		{"bad map mode", func(c *Config) { c.Decoder.MapMode = "stretch" }, "unknown map mode"},
		{"bad threshold", func(c *Config) { c.Decoder.NMSThreshold = 3 }, "nms threshold"},
		{"bad geometry", func(c *Config) { c.Decoder.InputWidth = 650 }, "does not divide"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLogLevelCaseInsensitive(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = "DEBUG"
	assert.NoError(t, cfg.Validate())
}

func TestToDetectorConfigCopiesStrides(t *testing.T) {
	cfg := DefaultConfig()
	dc, err := cfg.ToDetectorConfig()
	require.NoError(t, err)
	dc.Strides[0] = 4
	assert.Equal(t, 8, cfg.Decoder.Strides[0])
}

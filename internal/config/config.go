package config

import (
	"fmt"
	"strings"

	"github.com/MeKo-Tech/yolopost/internal/detector"
	"github.com/MeKo-Tech/yolopost/internal/tensor"
)

// DefaultConfig returns a configuration with the YOLOv7 COCO defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Verbose:  false,
		Decoder:  defaultDecoderConfig(),
		Output: OutputConfig{
			Format:              "text",
			ConfidencePrecision: 2,
		},
		Batch: BatchConfig{
			Workers:         4,
			ContinueOnError: false,
		},
	}
}

// defaultDecoderConfig returns default decoder configuration.
func defaultDecoderConfig() DecoderConfig {
	cfg := detector.DefaultConfig()
	return DecoderConfig{
		NumClasses:          cfg.NumClasses,
		InputWidth:          cfg.InputWidth,
		InputHeight:         cfg.InputHeight,
		Strides:             cfg.Strides,
		Anchors:             flattenAnchors(cfg.Anchors),
		ConfidenceThreshold: cfg.ConfidenceThreshold,
		NMSThreshold:        cfg.NMSThreshold,
		MaxCandidates:       cfg.MaxCandidates,
		MaxDetections:       cfg.MaxDetections,
		PreActivated:        cfg.PreActivated,
		MapMode:             string(cfg.MapMode),
		PadCentered:         cfg.PadCentered,
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, strings.ToLower(c.LogLevel)) {
		return fmt.Errorf("invalid log level '%s', must be one of: %s", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	validFormats := []string{"text", "json"}
	if !contains(validFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format '%s', must be one of: %s", c.Output.Format, strings.Join(validFormats, ", "))
	}
	if c.Output.ConfidencePrecision < 0 || c.Output.ConfidencePrecision > 10 {
		return fmt.Errorf("confidence precision must be between 0 and 10, got %d", c.Output.ConfidencePrecision)
	}

	if c.Batch.Workers < 1 {
		return fmt.Errorf("batch workers must be at least 1, got %d", c.Batch.Workers)
	}

	dc, err := c.ToDetectorConfig()
	if err != nil {
		return err
	}
	if err := dc.Validate(); err != nil {
		return fmt.Errorf("decoder: %w", err)
	}
	return nil
}

// ToDetectorConfig converts the decoder section into a detector.Config.
func (c *Config) ToDetectorConfig() (detector.Config, error) {
	d := c.Decoder
	anchors, err := expandAnchors(d.Anchors)
	if err != nil {
		return detector.Config{}, err
	}
	mode, err := detector.ParseMapMode(d.MapMode)
	if err != nil {
		return detector.Config{}, fmt.Errorf("decoder: %w", err)
	}
	return detector.Config{
		NumClasses:          d.NumClasses,
		InputWidth:          d.InputWidth,
		InputHeight:         d.InputHeight,
		Strides:             append([]int(nil), d.Strides...),
		Anchors:             anchors,
		ConfidenceThreshold: d.ConfidenceThreshold,
		NMSThreshold:        d.NMSThreshold,
		MaxCandidates:       d.MaxCandidates,
		MaxDetections:       d.MaxDetections,
		PreActivated:        d.PreActivated,
		MapMode:             mode,
		PadCentered:         d.PadCentered,
	}, nil
}

func flattenAnchors(groups [][]tensor.Anchor) [][]float32 {
	out := make([][]float32, len(groups))
	for i, g := range groups {
		for _, a := range g {
			out[i] = append(out[i], a.W, a.H)
		}
	}
	return out
}

func expandAnchors(flat [][]float32) ([][]tensor.Anchor, error) {
	out := make([][]tensor.Anchor, len(flat))
	for i, g := range flat {
		if len(g)%2 != 0 {
			return nil, fmt.Errorf("decoder: anchors for stride %d must be w,h pairs, got %d values", i, len(g))
		}
		for j := 0; j < len(g); j += 2 {
			out[i] = append(out[i], tensor.Anchor{W: g[j], H: g[j+1]})
		}
	}
	return out, nil
}

// contains checks if a slice contains a specific string.
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

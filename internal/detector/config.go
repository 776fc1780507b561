package detector

import (
	"fmt"

	"github.com/MeKo-Tech/yolopost/internal/tensor"
)

// Default pipeline parameters.
const (
	DefaultConfidenceThreshold = 0.5
	DefaultNMSThreshold        = 0.4
	DefaultMaxCandidates       = 512
	DefaultMaxDetections       = 100
)

// Config holds everything a Postprocessor fixes at construction.
type Config struct {
	NumClasses          int               // Classes per cell block (default: 80)
	InputWidth          int               // Network input width in pixels (default: 640)
	InputHeight         int               // Network input height in pixels (default: 640)
	Strides             []int             // One per scale (default: 8, 16, 32)
	Anchors             [][]tensor.Anchor // Anchor group per scale (default: YOLOv7)
	ConfidenceThreshold float32           // Objectness and combined score gate (default: 0.5)
	NMSThreshold        float32           // IoU above which same-class boxes are suppressed (default: 0.4)
	MaxCandidates       int               // Decoder working capacity (default: 512)
	MaxDetections       int               // Output capacity (default: 100)
	PreActivated        bool              // Raw tensor already holds sigmoid outputs (default: true)
	MapMode             MapMode           // "ratio" (default) or "letterbox"
	PadCentered         bool              // Letterbox padding split on both sides (letterbox mode only)
}

// DefaultConfig returns the YOLOv7 640x640 COCO configuration.
func DefaultConfig() Config {
	return Config{
		NumClasses:          tensor.DefaultNumClasses,
		InputWidth:          tensor.DefaultInputSize,
		InputHeight:         tensor.DefaultInputSize,
		Strides:             tensor.DefaultStrides(),
		Anchors:             tensor.DefaultAnchors(),
		ConfidenceThreshold: DefaultConfidenceThreshold,
		NMSThreshold:        DefaultNMSThreshold,
		MaxCandidates:       DefaultMaxCandidates,
		MaxDetections:       DefaultMaxDetections,
		PreActivated:        true,
		MapMode:             MapRatio,
	}
}

// Validate checks thresholds, capacities and geometry.
func (c Config) Validate() error {
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence threshold must be in [0,1], got %v", c.ConfidenceThreshold)
	}
	if c.NMSThreshold < 0 || c.NMSThreshold > 1 {
		return fmt.Errorf("nms threshold must be in [0,1], got %v", c.NMSThreshold)
	}
	if c.MaxCandidates <= 0 {
		return fmt.Errorf("max candidates must be > 0, got %d", c.MaxCandidates)
	}
	if c.MaxDetections <= 0 {
		return fmt.Errorf("max detections must be > 0, got %d", c.MaxDetections)
	}
	if _, err := ParseMapMode(string(c.MapMode)); err != nil {
		return err
	}
	if _, err := c.Layout(); err != nil {
		return fmt.Errorf("invalid geometry: %w", err)
	}
	return nil
}

// Layout builds the tensor layout described by c.
func (c Config) Layout() (*tensor.Layout, error) {
	return tensor.NewLayout(c.NumClasses, c.InputWidth, c.InputHeight, c.Strides, c.Anchors)
}

func (c Config) decoderConfig() DecoderConfig {
	return DecoderConfig{
		ConfidenceThreshold: c.ConfidenceThreshold,
		MaxCandidates:       c.MaxCandidates,
		PreActivated:        c.PreActivated,
	}
}

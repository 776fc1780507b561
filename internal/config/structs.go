//nolint:lll
package config

// Config represents the complete configuration for the yolopost CLI.
// It supports loading from configuration files, environment variables, and command-line flags.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Decoder, suppression and mapping
	Decoder DecoderConfig `mapstructure:"decoder" yaml:"decoder" json:"decoder"`

	// Class names
	Labels LabelsConfig `mapstructure:"labels" yaml:"labels" json:"labels"`

	// Output configuration
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// Batch processing configuration
	Batch BatchConfig `mapstructure:"batch" yaml:"batch" json:"batch"`

	// Metrics configuration
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics" json:"metrics"`
}

// DecoderConfig mirrors detector.Config in a file-friendly shape.
// Anchors hold one flat w,h,w,h,... list per stride.
type DecoderConfig struct {
	NumClasses          int         `mapstructure:"num_classes" yaml:"num_classes" json:"num_classes"`
	InputWidth          int         `mapstructure:"input_width" yaml:"input_width" json:"input_width"`
	InputHeight         int         `mapstructure:"input_height" yaml:"input_height" json:"input_height"`
	Strides             []int       `mapstructure:"strides" yaml:"strides" json:"strides"`
	Anchors             [][]float32 `mapstructure:"anchors" yaml:"anchors" json:"anchors"`
	ConfidenceThreshold float32     `mapstructure:"confidence_threshold" yaml:"confidence_threshold" json:"confidence_threshold"`
	NMSThreshold        float32     `mapstructure:"nms_threshold" yaml:"nms_threshold" json:"nms_threshold"`
	MaxCandidates       int         `mapstructure:"max_candidates" yaml:"max_candidates" json:"max_candidates"`
	MaxDetections       int         `mapstructure:"max_detections" yaml:"max_detections" json:"max_detections"`
	PreActivated        bool        `mapstructure:"pre_activated" yaml:"pre_activated" json:"pre_activated"`
	MapMode             string      `mapstructure:"map_mode" yaml:"map_mode" json:"map_mode"`
	PadCentered         bool        `mapstructure:"pad_centered" yaml:"pad_centered" json:"pad_centered"`
}

// LabelsConfig selects the class-name table.
type LabelsConfig struct {
	File string `mapstructure:"file" yaml:"file" json:"file"` // empty: built-in COCO names
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	Format              string `mapstructure:"format" yaml:"format" json:"format"`
	ConfidencePrecision int    `mapstructure:"confidence_precision" yaml:"confidence_precision" json:"confidence_precision"`
}

// BatchConfig contains batch processing settings.
type BatchConfig struct {
	Workers         int  `mapstructure:"workers" yaml:"workers" json:"workers"`
	ContinueOnError bool `mapstructure:"continue_on_error" yaml:"continue_on_error" json:"continue_on_error"`
}

// MetricsConfig toggles Prometheus metrics output.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
}

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/yolopost/internal/common"
	"github.com/MeKo-Tech/yolopost/internal/config"
	"github.com/MeKo-Tech/yolopost/internal/detector"
	"github.com/MeKo-Tech/yolopost/internal/labels"
	"github.com/MeKo-Tech/yolopost/internal/metrics"
	"github.com/MeKo-Tech/yolopost/internal/pipeline"
)

const (
	outputFormatText = "text"
	outputFormatJSON = "json"
)

func (a *app) newDecodeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode FILE...",
		Short: "Decode raw output tensors into detections",
		Long: `Decode one or more raw YOLOv7 output tensors.

Each FILE holds little-endian float32 values in scale, anchor, row, col,
channel order, exactly as many as the configured layout needs. Boxes are
mapped to the original image given by --size (default: the network input).
Directories are expanded to the *.bin, *.raw and *.f32 files they contain.

Examples:
  yolopost decode frame.bin --size 1920x1080
  yolopost decode dumps/ --recursive --format json --labels coco.names
  yolopost decode frame.bin --raw-logits --conf 0.25 --nms 0.45`,
		Args: cobra.MinimumNArgs(1),
		RunE: a.runDecode,
	}

	cmd.Flags().String("size", "", "original image size WxH (default: network input size)")
	cmd.Flags().StringP("format", "f", outputFormatText, "output format (text, json)")
	cmd.Flags().IntP("workers", "w", 4, "number of parallel workers")
	cmd.Flags().String("labels", "", "class names file, one per line (default: built-in COCO names)")
	cmd.Flags().Bool("metrics", false, "print Prometheus metrics after the run")
	cmd.Flags().Bool("continue-on-error", false, "exit zero even when some files fail")
	cmd.Flags().BoolP("recursive", "r", false, "descend into subdirectories")
	cmd.Flags().StringSlice("include", nil, "file patterns for directory arguments (default: *.bin,*.raw,*.f32)")
	cmd.Flags().StringSlice("exclude", nil, "file patterns to skip in directory arguments")
	addDetectorFlags(cmd)

	a.bind(cmd, cmd.Flags(),
		flagBinding{flag: "format", key: "output.format"},
		flagBinding{flag: "workers", key: "batch.workers"},
		flagBinding{flag: "labels", key: "labels.file"},
		flagBinding{flag: "metrics", key: "metrics.enabled"},
		flagBinding{flag: "continue-on-error", key: "batch.continue_on_error"},
	)
	a.bind(cmd, cmd.Flags(), detectorBindings...)
	return cmd
}

var detectorBindings = []flagBinding{
	{flag: "conf", key: "decoder.confidence_threshold"},
	{flag: "nms", key: "decoder.nms_threshold"},
	{flag: "max-det", key: "decoder.max_detections"},
	{flag: "map-mode", key: "decoder.map_mode"},
	{flag: "center-pad", key: "decoder.pad_centered"},
}

// addDetectorFlags registers threshold and capacity overrides shared by decode and bench.
func addDetectorFlags(cmd *cobra.Command) {
	cmd.Flags().Float32("conf", detector.DefaultConfidenceThreshold, "confidence threshold (0..1)")
	cmd.Flags().Float32("nms", detector.DefaultNMSThreshold, "NMS IoU threshold (0..1)")
	cmd.Flags().Int("max-det", detector.DefaultMaxDetections, "maximum detections per tensor")
	cmd.Flags().Bool("raw-logits", false, "tensor holds raw logits instead of sigmoid outputs")
	cmd.Flags().String("map-mode", string(detector.MapRatio), "coordinate mapping: ratio or letterbox")
	cmd.Flags().Bool("center-pad", false, "letterbox padding is split on both sides (letterbox mode)")
}

// detectorConfig converts the loaded configuration, applying --raw-logits.
func detectorConfig(cmd *cobra.Command, cfg *config.Config) (detector.Config, error) {
	dc, err := cfg.ToDetectorConfig()
	if err != nil {
		return detector.Config{}, err
	}
	if cmd.Flags().Changed("raw-logits") {
		raw, _ := cmd.Flags().GetBool("raw-logits")
		dc.PreActivated = !raw
	}
	return dc, nil
}

func (a *app) runDecode(cmd *cobra.Command, args []string) error {
	cfg, err := a.config()
	if err != nil {
		return err
	}
	dc, err := detectorConfig(cmd, cfg)
	if err != nil {
		return err
	}

	origW, origH := dc.InputWidth, dc.InputHeight
	if s, _ := cmd.Flags().GetString("size"); s != "" {
		if origW, origH, err = parseSize(s); err != nil {
			return err
		}
	}

	names, err := loadLabels(cfg.Labels.File, dc.NumClasses)
	if err != nil {
		return err
	}

	var (
		registry  *prometheus.Registry
		collector *metrics.Collector
	)
	opts := []detector.Option{detector.WithLogger(slog.Default())}
	if cfg.Metrics.Enabled {
		registry = prometheus.NewRegistry()
		collector = metrics.NewCollector(registry)
		opts = append(opts, detector.WithObserver(collector))
	}

	factory := func() (*detector.Postprocessor, error) {
		return detector.NewPostprocessor(dc, opts...)
	}

	var stages common.Stages
	stages.Start("discover")
	var discover pipeline.DiscoverOptions
	discover.Recursive, _ = cmd.Flags().GetBool("recursive")
	discover.Include, _ = cmd.Flags().GetStringSlice("include")
	discover.Exclude, _ = cmd.Flags().GetStringSlice("exclude")
	paths, err := pipeline.DiscoverTensorFiles(args, discover)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return errors.New("no tensor files found")
	}

	stages.Start("process")
	results, err := pipeline.ProcessFiles(cmd.Context(), paths, factory, pipeline.ParallelConfig{
		MaxWorkers: cfg.Batch.Workers,
		OrigWidth:  origW,
		OrigHeight: origH,
	})
	if err != nil {
		return err
	}

	stages.Start("render")
	out := cmd.OutOrStdout()
	switch cfg.Output.Format {
	case outputFormatJSON:
		err = writeJSONResults(out, results, origW, origH, names)
	default:
		err = writeTextResults(out, results, names, cfg.Output.ConfidencePrecision)
	}
	if err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if registry != nil {
		stages.Start("metrics")
		if err := metrics.WriteText(out, registry); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	stages.Stop()
	slog.Debug("decode finished", "files", len(paths), "timings", &stages)

	return failureError(results, cfg.Batch.ContinueOnError)
}

// failureError reports failed files. Capacity overflows are warnings, not failures.
func failureError(results []pipeline.FileResult, continueOnError bool) error {
	var failed []error
	for _, r := range results {
		if r.Failed() {
			slog.Error("tensor failed", "path", r.Path, "error", r.Err)
			failed = append(failed, r.Err)
		}
	}
	if len(failed) == 0 || continueOnError {
		return nil
	}
	return fmt.Errorf("%d of %d files failed: %w", len(failed), len(results), errors.Join(failed...))
}

func writeTextResults(w io.Writer, results []pipeline.FileResult, names *labels.Set, precision int) error {
	for _, r := range results {
		if r.Failed() {
			if _, err := fmt.Fprintf(w, "%s: error: %v\n", r.Path, r.Err); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(w, "%s: %s (%d detections)\n", r.Path, r.Summary.Status, len(r.Records)); err != nil {
			return err
		}
		for _, d := range r.Records {
			if _, err := fmt.Fprintf(w, "  %-16s %.*f  x=%d y=%d w=%d h=%d\n",
				names.Name(d.ClassID), precision, d.Probability, d.X, d.Y, d.Width, d.Height); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeJSONResults(w io.Writer, results []pipeline.FileResult, origW, origH int, names *labels.Set) error {
	docs := make([]detector.ResultJSON, 0, len(results))
	for _, r := range results {
		if r.Failed() {
			continue
		}
		docs = append(docs, detector.NewResultJSON(r.Path, origW, origH, r.Summary, r.Records, names))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(docs)
}

// loadLabels returns the class names. Built-in COCO names are used only when
// they match numClasses; otherwise ids render as class_<id>.
func loadLabels(path string, numClasses int) (*labels.Set, error) {
	if path == "" {
		coco := labels.COCO()
		if coco.CheckCount(numClasses) != nil {
			return nil, nil
		}
		return coco, nil
	}
	set, err := labels.Load(path)
	if err != nil {
		return nil, err
	}
	if err := set.CheckCount(numClasses); err != nil {
		slog.Warn("label file does not match class count", "file", path, "error", err)
	}
	return set, nil
}

// parseSize parses "WxH" into positive dimensions.
func parseSize(s string) (int, int, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("invalid size %q (want WxH, e.g. 1920x1080)", s)
	}
	w, errW := strconv.Atoi(strings.TrimSpace(ws))
	h, errH := strconv.Atoi(strings.TrimSpace(hs))
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("invalid size %q (want positive WxH, e.g. 1920x1080)", s)
	}
	return w, h, nil
}

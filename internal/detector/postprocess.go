package detector

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/MeKo-Tech/yolopost/internal/tensor"
)

// Observer receives the outcome of every Process call.
type Observer interface {
	ObserveProcess(sum Summary, elapsed time.Duration)
}

// Option configures a Postprocessor.
type Option func(*Postprocessor)

// WithObserver reports every Process call to o.
func WithObserver(o Observer) Option {
	return func(p *Postprocessor) { p.observer = o }
}

// WithLogger sets the logger used for overflow warnings. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Postprocessor) {
		if l != nil {
			p.logger = l
		}
	}
}

// Postprocessor chains Decoder, Suppressor and Mapper over preallocated buffers.
type Postprocessor struct {
	cfg        Config
	layout     *tensor.Layout
	decoder    *Decoder
	suppressor *Suppressor
	mapper     *Mapper
	observer   Observer
	logger     *slog.Logger
}

// NewPostprocessor validates cfg and sizes every buffer once.
func NewPostprocessor(cfg Config, opts ...Option) (*Postprocessor, error) {
	if cfg.MapMode == "" {
		cfg.MapMode = MapRatio
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid postprocessor config: %w", err)
	}
	layout, err := cfg.Layout()
	if err != nil {
		return nil, err
	}
	dec, err := NewDecoder(layout, cfg.decoderConfig())
	if err != nil {
		return nil, err
	}
	mapper, err := NewMapper(layout, cfg.MapMode, cfg.PadCentered)
	if err != nil {
		return nil, err
	}

	p := &Postprocessor{
		cfg:        cfg,
		layout:     layout,
		decoder:    dec,
		suppressor: NewSuppressor(cfg.MaxCandidates, cfg.NMSThreshold),
		mapper:     mapper,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.logger.Debug("postprocessor ready",
		"layout", layout.String(),
		"conf", cfg.ConfidenceThreshold,
		"nms", cfg.NMSThreshold,
		"max_candidates", cfg.MaxCandidates,
		"max_detections", cfg.MaxDetections,
		"pre_activated", cfg.PreActivated,
		"map_mode", string(cfg.MapMode))
	return p, nil
}

// Config returns the configuration the Postprocessor was built with.
func (p *Postprocessor) Config() Config { return p.cfg }

// Layout returns the tensor layout expected by Process.
func (p *Postprocessor) Layout() *tensor.Layout { return p.layout }

// NewDetections allocates output storage sized to MaxDetections.
func (p *Postprocessor) NewDetections() *Detections {
	return NewDetections(p.cfg.MaxDetections)
}

// Process decodes raw, suppresses overlaps and writes the surviving boxes,
// mapped to an origW x origH image, into out.
//
// An error wrapping ErrInvalidInput means nothing was processed and out is
// untouched. A *CapacityError means results were bounded but out holds the
// highest-scored detections that fit. A Summary with StatusNoDetection and a
// nil error means the tensor held no object.
func (p *Postprocessor) Process(raw []float32, origW, origH int, out *Detections) (Summary, error) {
	var start time.Time
	if p.observer != nil {
		start = time.Now()
	}
	sum, err := p.process(raw, origW, origH, out)
	if p.observer != nil {
		p.observer.ObserveProcess(sum, time.Since(start))
	}
	return sum, err
}

func (p *Postprocessor) process(raw []float32, origW, origH int, out *Detections) (Summary, error) {
	sum := Summary{Status: StatusInvalidInput}
	if out == nil || out.Cap() == 0 {
		return sum, invalidInput("output storage has no capacity")
	}
	if origW <= 0 || origH <= 0 {
		return sum, invalidInput("original size must be positive, got %dx%d", origW, origH)
	}
	view, err := tensor.NewView(raw, p.layout)
	if err != nil {
		return sum, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	out.Reset()
	sum.Candidates, sum.DroppedCandidates = p.decoder.Decode(view)
	if sum.Candidates == 0 {
		sum.Status = StatusNoDetection
		return sum, nil
	}

	cands := p.decoder.Candidates()
	kept := p.suppressor.Suppress(cands)
	sum.Kept = len(kept)
	if len(kept) > p.cfg.MaxDetections {
		sum.Truncated = len(kept) - p.cfg.MaxDetections
		kept = kept[:p.cfg.MaxDetections]
	}
	sum.Truncated += p.mapper.Map(cands, kept, origW, origH, out)
	sum.Written = out.Len()

	if sum.DroppedCandidates == 0 && sum.Truncated == 0 {
		sum.Status = StatusOK
		return sum, nil
	}
	sum.Status = StatusCapacityExceeded
	p.logger.Warn("detection capacity exceeded",
		"dropped_candidates", sum.DroppedCandidates,
		"truncated", sum.Truncated,
		"max_candidates", p.cfg.MaxCandidates,
		"max_detections", min(p.cfg.MaxDetections, out.Cap()))
	return sum, &CapacityError{DroppedCandidates: sum.DroppedCandidates, Truncated: sum.Truncated}
}

// Package metrics exports postprocessing outcomes as Prometheus metrics.
package metrics

import (
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"

	"github.com/MeKo-Tech/yolopost/internal/detector"
)

// Collector implements detector.Observer. It is safe to share between
// postprocessors running on different goroutines.
type Collector struct {
	processed  *prometheus.CounterVec
	candidates prometheus.Histogram
	detections prometheus.Histogram
	dropped    prometheus.Counter
	truncated  prometheus.Counter
	duration   prometheus.Histogram
}

// NewCollector registers the yolopost metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)
	return &Collector{
		processed: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yolopost_process_total",
				Help: "Total number of processed tensors",
			},
			[]string{"status"}, // ok, no_detection, capacity_exceeded, invalid_input
		),
		candidates: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "yolopost_candidates",
			Help:    "Candidates stored by the decoder per tensor",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 512},
		}),
		detections: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "yolopost_detections",
			Help:    "Detections written per tensor",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
		}),
		dropped: f.NewCounter(prometheus.CounterOpts{
			Name: "yolopost_dropped_candidates_total",
			Help: "Candidates dropped past the decoder working capacity",
		}),
		truncated: f.NewCounter(prometheus.CounterOpts{
			Name: "yolopost_truncated_detections_total",
			Help: "Detections discarded past the output capacity",
		}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "yolopost_process_duration_seconds",
			Help:    "Postprocessing duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.00005, 2, 14),
		}),
	}
}

// ObserveProcess records one Process outcome.
func (c *Collector) ObserveProcess(sum detector.Summary, elapsed time.Duration) {
	c.processed.WithLabelValues(sum.Status.String()).Inc()
	c.duration.Observe(elapsed.Seconds())
	if sum.Status == detector.StatusInvalidInput {
		return
	}
	c.candidates.Observe(float64(sum.Candidates))
	c.detections.Observe(float64(sum.Written))
	c.dropped.Add(float64(sum.DroppedCandidates))
	c.truncated.Add(float64(sum.Truncated))
}

// WriteText writes everything g gathers in the Prometheus text format.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	mfs, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range mfs {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encode metrics: %w", err)
		}
	}
	return nil
}

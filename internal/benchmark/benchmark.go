// Package benchmark measures Postprocessor latency and allocations outside
// `go test`, for the bench command.
package benchmark

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/MeKo-Tech/yolopost/internal/detector"
)

// Options controls a benchmark run.
type Options struct {
	Iterations int // timed iterations (default: 1000)
	Warmup     int // untimed iterations before measuring (default: 10)
	OrigWidth  int
	OrigHeight int
}

// Result summarises a run. Latencies are per Process call.
type Result struct {
	Iterations  int
	Mean        time.Duration
	Min         time.Duration
	Max         time.Duration
	P50         time.Duration
	P95         time.Duration
	P99         time.Duration
	AllocsPerOp float64
	BytesPerOp  float64
	Statuses    map[detector.Status]int
	LastSummary detector.Summary
}

// String returns a one-line human readable summary.
func (r Result) String() string {
	return fmt.Sprintf("%d iterations, mean: %v, p50: %v, p95: %v, p99: %v, min: %v, max: %v, allocs/op: %.2f, B/op: %.0f",
		r.Iterations, r.Mean, r.P50, r.P95, r.P99, r.Min, r.Max, r.AllocsPerOp, r.BytesPerOp)
}

// Run processes raw repeatedly with p. Capacity overflows are counted, not
// treated as failures; invalid input aborts the run.
func Run(ctx context.Context, p *detector.Postprocessor, raw []float32, opts Options) (Result, error) {
	if p == nil {
		return Result{}, errors.New("nil postprocessor")
	}
	if opts.Iterations <= 0 {
		opts.Iterations = 1000
	}
	if opts.Warmup < 0 {
		opts.Warmup = 0
	}
	if opts.OrigWidth <= 0 || opts.OrigHeight <= 0 {
		opts.OrigWidth, opts.OrigHeight = p.Layout().InputWidth, p.Layout().InputHeight
	}

	out := p.NewDetections()
	for range opts.Warmup {
		if _, err := p.Process(raw, opts.OrigWidth, opts.OrigHeight, out); errors.Is(err, detector.ErrInvalidInput) {
			return Result{}, err
		}
	}

	samples := make([]float64, 0, opts.Iterations)
	res := Result{Statuses: make(map[detector.Status]int)}

	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)
	for i := 0; i < opts.Iterations; i++ {
		if i%64 == 0 {
			if err := ctx.Err(); err != nil {
				return Result{}, err
			}
		}
		start := time.Now()
		sum, err := p.Process(raw, opts.OrigWidth, opts.OrigHeight, out)
		samples = append(samples, float64(time.Since(start)))
		if errors.Is(err, detector.ErrInvalidInput) {
			return Result{}, err
		}
		res.Statuses[sum.Status]++
		res.LastSummary = sum
	}
	runtime.ReadMemStats(&after)

	res.Iterations = len(samples)
	// samples, Statuses and the overflow error path account for some of
	// these; for a clean tensor the per-op figure rounds to zero.
	res.AllocsPerOp = float64(after.Mallocs-before.Mallocs) / float64(res.Iterations)
	res.BytesPerOp = float64(after.TotalAlloc-before.TotalAlloc) / float64(res.Iterations)

	slices.Sort(samples)
	res.Mean = time.Duration(stat.Mean(samples, nil))
	res.Min = time.Duration(samples[0])
	res.Max = time.Duration(samples[len(samples)-1])
	res.P50 = time.Duration(stat.Quantile(0.50, stat.Empirical, samples, nil))
	res.P95 = time.Duration(stat.Quantile(0.95, stat.Empirical, samples, nil))
	res.P99 = time.Duration(stat.Quantile(0.99, stat.Empirical, samples, nil))
	return res, nil
}

// Package pipeline runs the postprocessor over many tensor dumps with a
// worker pool. Each worker owns its own Postprocessor and output storage.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/MeKo-Tech/yolopost/internal/common"
	"github.com/MeKo-Tech/yolopost/internal/detector"
	"github.com/MeKo-Tech/yolopost/internal/mempool"
	"github.com/MeKo-Tech/yolopost/internal/tensor"
)

// ProgressCallback receives progress updates.
type ProgressCallback interface {
	// OnStart is called when processing begins with the total number of items.
	OnStart(total int)

	// OnProgress is called after every finished item.
	OnProgress(current, total int)

	// OnComplete is called when processing is finished.
	OnComplete()
}

// ParallelConfig holds configuration for parallel processing.
type ParallelConfig struct {
	MaxWorkers       int              // Number of parallel workers (0 = runtime.NumCPU())
	OrigWidth        int              // Original image width every tensor maps to
	OrigHeight       int              // Original image height every tensor maps to
	ProgressCallback ProgressCallback // Optional progress reporting
}

// Factory builds one Postprocessor per worker.
type Factory func() (*detector.Postprocessor, error)

// FileResult is the outcome for one tensor file.
type FileResult struct {
	Path    string
	Summary detector.Summary
	Records []detector.DetectionRecord // copied out of the worker's storage
	Err     error                      // read errors, ErrInvalidInput or *CapacityError
	Elapsed time.Duration
}

// Failed reports whether the file produced no usable result. Capacity
// overflows still carry bounded results and do not count as failures.
func (r FileResult) Failed() bool {
	return r.Err != nil && !errors.Is(r.Err, detector.ErrCapacityExceeded)
}

type fileJob struct {
	index int
	path  string
}

type indexedResult struct {
	index  int
	result FileResult
}

// ProcessFiles reads and postprocesses every path, returning results in input order.
func ProcessFiles(ctx context.Context, paths []string, factory Factory, config ParallelConfig) ([]FileResult, error) {
	if len(paths) == 0 {
		return nil, errors.New("no tensor files provided")
	}
	if factory == nil {
		return nil, errors.New("nil postprocessor factory")
	}
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = runtime.NumCPU()
	}
	workers := min(config.MaxWorkers, len(paths))

	// Build every worker up front so config errors surface before any work.
	procs := make([]*detector.Postprocessor, workers)
	for i := range procs {
		p, err := factory()
		if err != nil {
			return nil, fmt.Errorf("creating worker %d: %w", i, err)
		}
		procs[i] = p
	}

	if config.ProgressCallback != nil {
		config.ProgressCallback.OnStart(len(paths))
		defer config.ProgressCallback.OnComplete()
	}

	jobs := make(chan fileJob, len(paths))
	results := make(chan indexedResult, len(paths))

	var wg sync.WaitGroup
	for _, p := range procs {
		wg.Add(1)
		go worker(ctx, p, config, jobs, results, &wg)
	}

	go func() {
		defer close(jobs)
		for i, path := range paths {
			select {
			case jobs <- fileJob{index: i, path: path}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	ordered := make([]FileResult, len(paths))
	processed := 0
	for res := range results {
		ordered[res.index] = res.result
		processed++
		if config.ProgressCallback != nil {
			config.ProgressCallback.OnProgress(processed, len(paths))
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ordered, nil
}

func worker(
	ctx context.Context,
	p *detector.Postprocessor,
	config ParallelConfig,
	jobs <-chan fileJob,
	results chan<- indexedResult,
	wg *sync.WaitGroup,
) {
	defer wg.Done()
	out := p.NewDetections()

	for {
		select {
		case job, ok := <-jobs:
			if !ok {
				return
			}
			// results is buffered to len(paths), so this never blocks.
			results <- indexedResult{
				index:  job.index,
				result: processFile(p, out, job.path, config.OrigWidth, config.OrigHeight),
			}
		case <-ctx.Done():
			return
		}
	}
}

func processFile(p *detector.Postprocessor, out *detector.Detections, path string, origW, origH int) FileResult {
	var stages common.Stages
	res := FileResult{Path: path}

	stages.Start("read")
	raw, err := tensor.ReadRawFile(path, p.Layout())
	if err != nil {
		res.Err = fmt.Errorf("%w: %w", detector.ErrInvalidInput, err)
		res.Summary.Status = detector.StatusInvalidInput
		res.Elapsed = stages.Stop()
		return res
	}
	defer mempool.PutFloat32(raw)

	stages.Start("process")
	res.Summary, res.Err = p.Process(raw, origW, origH, out)
	if res.Summary.Status != detector.StatusInvalidInput {
		res.Records = append([]detector.DetectionRecord(nil), out.Records()...)
	}
	res.Elapsed = stages.Stop()

	slog.Debug("tensor processed",
		"path", path,
		"status", res.Summary.Status.String(),
		"candidates", res.Summary.Candidates,
		"detections", res.Summary.Written,
		"timings", &stages)
	return res
}

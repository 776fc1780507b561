package cmd

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/yolopost/internal/benchmark"
	"github.com/MeKo-Tech/yolopost/internal/detector"
	"github.com/MeKo-Tech/yolopost/internal/mempool"
	"github.com/MeKo-Tech/yolopost/internal/tensor"
	"github.com/MeKo-Tech/yolopost/internal/tensor/mock"
)

func (a *app) newBenchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure postprocessing latency and allocations",
		Long: `Run the postprocessor repeatedly on one tensor and report latency
percentiles and heap allocations per call.

Without --input a synthetic tensor with --objects well separated objects is used.

Examples:
  yolopost bench
  yolopost bench --iterations 10000 --objects 50
  yolopost bench --input frame.bin --size 1920x1080`,
		Args: cobra.NoArgs,
		RunE: a.runBench,
	}

	cmd.Flags().IntP("iterations", "n", 1000, "timed iterations")
	cmd.Flags().Int("warmup", 10, "untimed warmup iterations")
	cmd.Flags().String("input", "", "raw tensor file (default: synthetic)")
	cmd.Flags().Int("objects", 20, "objects in the synthetic tensor")
	cmd.Flags().String("size", "", "original image size WxH (default: network input size)")
	addDetectorFlags(cmd)
	a.bind(cmd, cmd.Flags(), detectorBindings...)
	return cmd
}

func (a *app) runBench(cmd *cobra.Command, _ []string) error {
	cfg, err := a.config()
	if err != nil {
		return err
	}
	dc, err := detectorConfig(cmd, cfg)
	if err != nil {
		return err
	}
	p, err := detector.NewPostprocessor(dc)
	if err != nil {
		return err
	}

	opts := benchmark.Options{}
	opts.Iterations, _ = cmd.Flags().GetInt("iterations")
	opts.Warmup, _ = cmd.Flags().GetInt("warmup")
	if s, _ := cmd.Flags().GetString("size"); s != "" {
		if opts.OrigWidth, opts.OrigHeight, err = parseSize(s); err != nil {
			return err
		}
	}

	var raw []float32
	if input, _ := cmd.Flags().GetString("input"); input != "" {
		if raw, err = tensor.ReadRawFile(input, p.Layout()); err != nil {
			return err
		}
		defer mempool.PutFloat32(raw)
	} else {
		n, _ := cmd.Flags().GetInt("objects")
		raw = syntheticTensor(p.Layout(), n, dc.PreActivated)
	}

	slog.Debug("benchmark starting", "layout", p.Layout().String(), "iterations", opts.Iterations)
	res, err := benchmark.Run(cmd.Context(), p, raw, opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintln(out, res.String()); err != nil {
		return err
	}
	statuses := make([]detector.Status, 0, len(res.Statuses))
	for s := range res.Statuses {
		statuses = append(statuses, s)
	}
	slices.Sort(statuses)
	for _, s := range statuses {
		if _, err := fmt.Fprintf(out, "  %-18s %d\n", s, res.Statuses[s]); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(out, "last: %d candidates, %d kept, %d written\n",
		res.LastSummary.Candidates, res.LastSummary.Kept, res.LastSummary.Written)
	return err
}

// syntheticTensor places n objects on the finest scale, walking the grid with
// a stride that keeps neighbouring boxes from overlapping.
func syntheticTensor(layout *tensor.Layout, n int, preActivated bool) []float32 {
	data := mock.NewEmpty(layout)
	sc := layout.Scales[0]
	const step = 4
	perRow := max(sc.GridW/step, 1)
	for i := 0; i < n; i++ {
		row := (i / perRow) * step % sc.GridH
		col := (i % perRow) * step
		mock.Place(data, layout, mock.At(0, i%len(sc.Anchors), row, col, i%layout.NumClasses, 0.9, 0.95))
	}
	if !preActivated {
		return mock.ToLogits(data)
	}
	return data
}

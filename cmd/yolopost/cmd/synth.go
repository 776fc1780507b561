package cmd

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/yolopost/internal/tensor"
	"github.com/MeKo-Tech/yolopost/internal/tensor/mock"
)

func (a *app) newSynthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "synth FILE",
		Short: "Write a synthetic raw output tensor",
		Long: `Write a raw float32 tensor for the configured layout with objects placed
at chosen cells. Every other cell is zero unless --uniform is given.

An object is "scale,anchor,row,col,class,score". The objectness channel gets
score and the class channel 1.0, so the decoded probability equals score.

Examples:
  yolopost synth one.bin --object 0,0,40,40,0,0.9
  yolopost synth two.bin --object 0,0,40,40,0,0.9 --object 2,1,5,5,16,0.7
  yolopost synth logits.bin --object 1,2,10,10,3,0.8 --raw-logits`,
		Args: cobra.ExactArgs(1),
		RunE: a.runSynth,
	}

	cmd.Flags().StringArray("object", nil, "object as scale,anchor,row,col,class,score (repeatable)")
	cmd.Flags().Float32("uniform", 0, "fill every channel with this value before placing objects")
	cmd.Flags().Bool("raw-logits", false, "write inverse-sigmoid values instead of probabilities")
	return cmd
}

func (a *app) runSynth(cmd *cobra.Command, args []string) error {
	cfg, err := a.config()
	if err != nil {
		return err
	}
	dc, err := cfg.ToDetectorConfig()
	if err != nil {
		return err
	}
	layout, err := dc.Layout()
	if err != nil {
		return err
	}

	specs, _ := cmd.Flags().GetStringArray("object")
	uniform, _ := cmd.Flags().GetFloat32("uniform")
	rawLogits, _ := cmd.Flags().GetBool("raw-logits")

	data := mock.NewUniform(layout, uniform)
	for _, spec := range specs {
		obj, err := parseObject(spec, layout)
		if err != nil {
			return err
		}
		mock.Place(data, layout, obj)
	}
	if rawLogits {
		data = mock.ToLogits(data)
	}

	if err := tensor.WriteRawFile(args[0], data); err != nil {
		return err
	}
	if view, err := tensor.NewView(data, layout); err == nil {
		gate := float32(0.5)
		if rawLogits {
			gate = 0 // logit(0.5)
		}
		minVal, maxVal, mean := tensor.Stats(data)
		slog.Debug("synthetic tensor written",
			"file", args[0],
			"layout", layout.String(),
			"objects", len(specs),
			"active_cells", tensor.ObjectnessAbove(view, gate),
			"min", minVal, "max", maxVal, "mean", mean)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d values, %d objects)\n", args[0], len(data), len(specs))
	return err
}

// parseObject parses "scale,anchor,row,col,class,score" and checks it against layout.
func parseObject(spec string, layout *tensor.Layout) (mock.Object, error) {
	parts := strings.Split(spec, ",")
	if len(parts) != 6 {
		return mock.Object{}, fmt.Errorf("invalid object %q: want scale,anchor,row,col,class,score", spec)
	}
	var idx [5]int
	for i := range idx {
		v, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil {
			return mock.Object{}, fmt.Errorf("invalid object %q: field %d: %w", spec, i+1, err)
		}
		idx[i] = v
	}
	score, err := strconv.ParseFloat(strings.TrimSpace(parts[5]), 32)
	if err != nil {
		return mock.Object{}, fmt.Errorf("invalid object %q: score: %w", spec, err)
	}

	s, anc, row, col, class := idx[0], idx[1], idx[2], idx[3], idx[4]
	switch {
	case s < 0 || s >= len(layout.Scales):
		return mock.Object{}, fmt.Errorf("invalid object %q: scale %d out of range [0,%d)", spec, s, len(layout.Scales))
	case anc < 0 || anc >= len(layout.Scales[s].Anchors):
		return mock.Object{}, fmt.Errorf("invalid object %q: anchor %d out of range", spec, anc)
	case row < 0 || row >= layout.Scales[s].GridH || col < 0 || col >= layout.Scales[s].GridW:
		return mock.Object{}, fmt.Errorf("invalid object %q: cell %d,%d outside %dx%d grid",
			spec, row, col, layout.Scales[s].GridW, layout.Scales[s].GridH)
	case class < 0 || class >= layout.NumClasses:
		return mock.Object{}, fmt.Errorf("invalid object %q: class %d out of range [0,%d)", spec, class, layout.NumClasses)
	case score < 0 || score > 1:
		return mock.Object{}, fmt.Errorf("invalid object %q: score must be in [0,1]", spec)
	}
	return mock.At(s, anc, row, col, class, float32(score), 1), nil
}

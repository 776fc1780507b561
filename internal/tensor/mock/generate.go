// Package mock builds synthetic raw detection tensors for tests and benchmarks.
package mock

import (
	"math"

	"github.com/MeKo-Tech/yolopost/internal/tensor"
)

// Object places one activated cell block into a synthetic tensor.
// X, Y, W, H are raw box channels; 0.5 puts the centre in the middle of the
// cell and makes the box exactly one anchor in size.
type Object struct {
	Scale, Anchor, Row, Col int
	Class                   int
	Obj                     float32
	ClassScore              float32
	X, Y, W, H              float32
}

// At is a shorthand for an object centred in its cell with anchor-sized box.
func At(scale, anchor, row, col, class int, obj, classScore float32) Object {
	return Object{
		Scale: scale, Anchor: anchor, Row: row, Col: col,
		Class: class, Obj: obj, ClassScore: classScore,
		X: 0.5, Y: 0.5, W: 0.5, H: 0.5,
	}
}

// NewEmpty returns a zero tensor for layout; nothing passes any positive threshold.
func NewEmpty(layout *tensor.Layout) []float32 {
	return make([]float32, layout.Len())
}

// NewUniform fills every channel of every cell with value clamped to [0,1].
func NewUniform(layout *tensor.Layout, value float32) []float32 {
	data := make([]float32, layout.Len())
	v := clamp01(value)
	for i := range data {
		data[i] = v
	}
	return data
}

// NewWithObjects returns a zero tensor with the given objects placed.
func NewWithObjects(layout *tensor.Layout, objs ...Object) []float32 {
	data := NewEmpty(layout)
	for _, o := range objs {
		Place(data, layout, o)
	}
	return data
}

// Place writes o into data, overwriting the cell block.
func Place(data []float32, layout *tensor.Layout, o Object) {
	off := layout.Offset(o.Scale, o.Anchor, o.Row, o.Col)
	block := data[off : off+layout.Channels()]
	for i := range block {
		block[i] = 0
	}
	block[tensor.ChanX] = o.X
	block[tensor.ChanY] = o.Y
	block[tensor.ChanW] = o.W
	block[tensor.ChanH] = o.H
	block[tensor.ChanObj] = clamp01(o.Obj)
	block[tensor.ChanClass0+o.Class] = clamp01(o.ClassScore)
}

// BoxChannels inverts the YOLOv7 box reconstruction: it returns the raw channel
// values that decode to a box centred at (cx, cy) with size (w, h), all
// normalised to the input. Centres must fall within [col-0.5, col+1.5) of the
// cell grid for the result to stay in the activated range [0,1].
func BoxChannels(layout *tensor.Layout, scale, anchor, row, col int, cx, cy, w, h float32) (x, y, bw, bh float32) {
	s := layout.Scales[scale]
	a := s.Anchors[anchor]
	x = (cx*float32(s.GridW) - float32(col) + 0.5) / 2
	y = (cy*float32(s.GridH) - float32(row) + 0.5) / 2
	bw = float32(math.Sqrt(float64(w*float32(layout.InputWidth)/a.W))) / 2
	bh = float32(math.Sqrt(float64(h*float32(layout.InputHeight)/a.H))) / 2
	return x, y, bw, bh
}

// ToLogits converts an activated tensor into pre-sigmoid logits in place.
// Values are clamped away from 0 and 1 so the result stays finite.
func ToLogits(data []float32) []float32 {
	const eps = 1e-6
	for i, v := range data {
		p := math.Min(math.Max(float64(v), eps), 1-eps)
		data[i] = float32(math.Log(p / (1 - p)))
	}
	return data
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

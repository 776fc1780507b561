package tensor

import (
	"errors"
	"fmt"
)

// Channel indices inside one cell block. Class scores follow ChanClass0.
const (
	ChanX = iota
	ChanY
	ChanW
	ChanH
	ChanObj
	ChanClass0
)

// Default network geometry for YOLOv7 at 640x640.
const (
	DefaultInputSize  = 640
	DefaultNumClasses = 80
)

// Anchor is a prior box size in input pixels.
type Anchor struct {
	W float32 `json:"w" yaml:"w"`
	H float32 `json:"h" yaml:"h"`
}

// Scale describes one detection head.
type Scale struct {
	Stride  int
	GridW   int
	GridH   int
	Anchors []Anchor
}

// Cells returns the number of cell blocks contributed by this scale.
func (s Scale) Cells() int {
	return len(s.Anchors) * s.GridW * s.GridH
}

// Layout fixes how a raw detection tensor is arranged in memory: scales in
// order, then anchors, then rows, then columns, then 5+NumClasses channels.
type Layout struct {
	NumClasses  int
	InputWidth  int
	InputHeight int
	Scales      []Scale

	// base[s] is the flat index of the first value of scale s.
	base []int
	size int
}

// DefaultStrides are the YOLOv7 head strides.
func DefaultStrides() []int {
	return []int{8, 16, 32}
}

// DefaultAnchors returns the YOLOv7 anchor table, three anchors per stride.
func DefaultAnchors() [][]Anchor {
	return [][]Anchor{
		{{12, 16}, {19, 36}, {40, 28}},
		{{36, 75}, {76, 55}, {72, 146}},
		{{142, 110}, {192, 243}, {459, 401}},
	}
}

// DefaultLayout returns the 640x640 three-scale YOLOv7 layout for numClasses.
func DefaultLayout(numClasses int) (*Layout, error) {
	return NewLayout(numClasses, DefaultInputSize, DefaultInputSize, DefaultStrides(), DefaultAnchors())
}

// NewLayout builds a layout, deriving each grid as input/stride.
func NewLayout(numClasses, inputW, inputH int, strides []int, anchors [][]Anchor) (*Layout, error) {
	if numClasses <= 0 {
		return nil, fmt.Errorf("num classes must be > 0, got %d", numClasses)
	}
	if inputW <= 0 || inputH <= 0 {
		return nil, fmt.Errorf("input size must be positive, got %dx%d", inputW, inputH)
	}
	if len(strides) == 0 {
		return nil, errors.New("at least one stride is required")
	}
	if len(anchors) != len(strides) {
		return nil, fmt.Errorf("anchor groups (%d) must match strides (%d)", len(anchors), len(strides))
	}

	l := &Layout{
		NumClasses:  numClasses,
		InputWidth:  inputW,
		InputHeight: inputH,
		Scales:      make([]Scale, len(strides)),
		base:        make([]int, len(strides)),
	}
	ch := l.Channels()
	for i, stride := range strides {
		if stride <= 0 {
			return nil, fmt.Errorf("stride %d must be > 0, got %d", i, stride)
		}
		if inputW%stride != 0 || inputH%stride != 0 {
			return nil, fmt.Errorf("stride %d does not divide input %dx%d", stride, inputW, inputH)
		}
		if len(anchors[i]) == 0 {
			return nil, fmt.Errorf("scale %d has no anchors", i)
		}
		group := make([]Anchor, len(anchors[i]))
		for j, a := range anchors[i] {
			if a.W <= 0 || a.H <= 0 {
				return nil, fmt.Errorf("anchor %d of scale %d must be positive, got %vx%v", j, i, a.W, a.H)
			}
			group[j] = a
		}
		l.Scales[i] = Scale{
			Stride:  stride,
			GridW:   inputW / stride,
			GridH:   inputH / stride,
			Anchors: group,
		}
		l.base[i] = l.size
		l.size += l.Scales[i].Cells() * ch
	}
	return l, nil
}

// Channels is the length of one cell block.
func (l *Layout) Channels() int {
	return ChanClass0 + l.NumClasses
}

// Len is the total number of float32 values in a tensor of this layout.
func (l *Layout) Len() int {
	return l.size
}

// Cells is the number of cell blocks across all scales.
func (l *Layout) Cells() int {
	n := 0
	for _, s := range l.Scales {
		n += s.Cells()
	}
	return n
}

// Offset returns the flat index of channel 0 of the given cell block.
// Arguments are not range-checked.
func (l *Layout) Offset(scale, anchor, row, col int) int {
	s := &l.Scales[scale]
	return l.base[scale] + ((anchor*s.GridH+row)*s.GridW+col)*l.Channels()
}

// String summarises the layout for logs.
func (l *Layout) String() string {
	grids := make([]string, len(l.Scales))
	for i, s := range l.Scales {
		grids[i] = fmt.Sprintf("%dx%d/%d", s.GridW, s.GridH, s.Stride)
	}
	return fmt.Sprintf("input=%dx%d classes=%d scales=%v len=%d", l.InputWidth, l.InputHeight, l.NumClasses, grids, l.size)
}

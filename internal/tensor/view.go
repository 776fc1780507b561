package tensor

import (
	"errors"
	"fmt"
)

// ErrShapeMismatch is returned when a buffer does not match its layout.
var ErrShapeMismatch = errors.New("tensor length does not match layout")

// View is a read-only typed accessor over a borrowed raw tensor buffer.
// It does not copy data and must not outlive the buffer.
type View struct {
	data   []float32
	layout *Layout
}

// NewView wraps data after checking its length against layout.
func NewView(data []float32, layout *Layout) (View, error) {
	if layout == nil {
		return View{}, errors.New("nil layout")
	}
	if len(data) == 0 {
		return View{}, errors.New("empty tensor data")
	}
	if len(data) != layout.Len() {
		return View{}, fmt.Errorf("%w: got %d, want %d", ErrShapeMismatch, len(data), layout.Len())
	}
	return View{data: data, layout: layout}, nil
}

// Layout returns the layout the view was built with.
func (v View) Layout() *Layout {
	return v.layout
}

// Data returns the underlying buffer.
func (v View) Data() []float32 {
	return v.data
}

// Block returns the 5+NumClasses channel values of one cell.
func (v View) Block(scale, anchor, row, col int) []float32 {
	off := v.layout.Offset(scale, anchor, row, col)
	return v.data[off : off+v.layout.Channels() : off+v.layout.Channels()]
}

// At returns a single channel value of one cell.
func (v View) At(scale, anchor, row, col, channel int) float32 {
	return v.data[v.layout.Offset(scale, anchor, row, col)+channel]
}

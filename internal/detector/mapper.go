package detector

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"

	"github.com/MeKo-Tech/yolopost/internal/tensor"
)

// MapMode selects how normalised boxes are projected back to the original image.
type MapMode string

const (
	// MapRatio scales input pixels by max(origW/inW, origH/inH). This is the
	// inverse of a letterbox that pads only bottom/right.
	MapRatio MapMode = "ratio"
	// MapLetterbox undoes a uniform resize plus padding offsets, clamping to
	// the original image.
	MapLetterbox MapMode = "letterbox"
)

// ParseMapMode validates a mode name. The empty string selects MapRatio.
func ParseMapMode(s string) (MapMode, error) {
	switch MapMode(s) {
	case "", MapRatio:
		return MapRatio, nil
	case MapLetterbox:
		return MapLetterbox, nil
	default:
		return "", fmt.Errorf("unknown map mode %q (want %q or %q)", s, MapRatio, MapLetterbox)
	}
}

// Mapper converts kept candidates into DetectionRecords.
type Mapper struct {
	inW, inH float32
	mode     MapMode
	centered bool // letterbox padding split evenly on both sides
}

// NewMapper returns a Mapper for layout's input resolution.
func NewMapper(layout *tensor.Layout, mode MapMode, centered bool) (*Mapper, error) {
	if layout == nil {
		return nil, errors.New("nil layout")
	}
	mode, err := ParseMapMode(string(mode))
	if err != nil {
		return nil, err
	}
	return &Mapper{
		inW:      float32(layout.InputWidth),
		inH:      float32(layout.InputHeight),
		mode:     mode,
		centered: centered,
	}, nil
}

// Mode returns the projection in use.
func (m *Mapper) Mode() MapMode {
	return m.mode
}

// Map appends one record per kept index to out, in the given order, until out
// is full. It returns how many kept entries did not fit.
func (m *Mapper) Map(cands []Candidate, kept []int, origW, origH int, out *Detections) (truncated int) {
	if m.mode == MapLetterbox {
		return m.mapLetterbox(cands, kept, origW, origH, out)
	}
	return m.mapRatio(cands, kept, origW, origH, out)
}

func (m *Mapper) mapRatio(cands []Candidate, kept []int, origW, origH int, out *Detections) int {
	r := math32.Max(float32(origW)/m.inW, float32(origH)/m.inH)
	for n, i := range kept {
		if out.full() {
			return len(kept) - n
		}
		c := &cands[i]
		// Corners are truncated to whole input pixels before scaling.
		left := float32(int(c.Left * m.inW))
		top := float32(int(c.Top * m.inH))
		right := float32(int(c.Right * m.inW))
		bottom := float32(int(c.Bottom * m.inH))
		out.push(DetectionRecord{
			X:           int(left * r),
			Y:           int(top * r),
			Width:       int((right - left) * r),
			Height:      int((bottom - top) * r),
			ClassID:     c.ClassID,
			Probability: c.Score,
		})
	}
	return 0
}

func (m *Mapper) mapLetterbox(cands []Candidate, kept []int, origW, origH int, out *Detections) int {
	ow, oh := float32(origW), float32(origH)
	s := math32.Min(m.inW/ow, m.inH/oh)
	var padX, padY float32
	if m.centered {
		padX = (m.inW - ow*s) / 2
		padY = (m.inH - oh*s) / 2
	}
	for n, i := range kept {
		if out.full() {
			return len(kept) - n
		}
		c := &cands[i]
		left := clampTo((c.Left*m.inW-padX)/s, ow)
		top := clampTo((c.Top*m.inH-padY)/s, oh)
		right := clampTo((c.Right*m.inW-padX)/s, ow)
		bottom := clampTo((c.Bottom*m.inH-padY)/s, oh)
		out.push(DetectionRecord{
			X:           int(left),
			Y:           int(top),
			Width:       int(right - left),
			Height:      int(bottom - top),
			ClassID:     c.ClassID,
			Probability: c.Score,
		})
	}
	return 0
}

func clampTo(v, hi float32) float32 {
	if !(v > 0) {
		return 0
	}
	if v > hi {
		return hi
	}
	return v
}

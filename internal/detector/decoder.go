package detector

import (
	"errors"
	"fmt"

	"github.com/MeKo-Tech/yolopost/internal/tensor"
)

// DecoderConfig holds the decoder parameters fixed at construction.
type DecoderConfig struct {
	ConfidenceThreshold float32 // Gate for objectness and combined score (default: 0.5)
	MaxCandidates       int     // Working capacity; later candidates are dropped (default: 512)
	PreActivated        bool    // Raw values already passed through sigmoid (default: true)
}

// Decoder turns a raw tensor into normalised candidates.
type Decoder struct {
	layout *tensor.Layout
	cfg    DecoderConfig
	gate   float32 // objectness gate in raw value space
	cands  []Candidate
}

// NewDecoder preallocates the candidate buffer for layout.
func NewDecoder(layout *tensor.Layout, cfg DecoderConfig) (*Decoder, error) {
	if layout == nil {
		return nil, errors.New("nil layout")
	}
	if cfg.MaxCandidates <= 0 {
		return nil, fmt.Errorf("max candidates must be > 0, got %d", cfg.MaxCandidates)
	}
	if cfg.ConfidenceThreshold < 0 || cfg.ConfidenceThreshold > 1 {
		return nil, fmt.Errorf("confidence threshold must be in [0,1], got %v", cfg.ConfidenceThreshold)
	}
	d := &Decoder{
		layout: layout,
		cfg:    cfg,
		gate:   cfg.ConfidenceThreshold,
		cands:  make([]Candidate, 0, cfg.MaxCandidates),
	}
	if !cfg.PreActivated {
		// sigmoid is monotonic, so gating the logit against logit(t) is the
		// same test as gating sigmoid(logit) against t.
		d.gate = logit(cfg.ConfidenceThreshold)
	}
	return d, nil
}

// Decode scans every cell of v in layout order and collects candidates whose
// objectness and combined score are strictly above the threshold. It returns
// the number of stored candidates and how many more passed the gates but did
// not fit the working capacity. v must use the decoder's layout.
func (d *Decoder) Decode(v tensor.View) (n, dropped int) {
	d.cands = d.cands[:0]
	l := d.layout
	data := v.Data()
	ch := l.Channels()
	t := d.cfg.ConfidenceThreshold
	act := !d.cfg.PreActivated
	inW, inH := float32(l.InputWidth), float32(l.InputHeight)

	for s := range l.Scales {
		sc := &l.Scales[s]
		gw, gh := float32(sc.GridW), float32(sc.GridH)
		for a, anchor := range sc.Anchors {
			for row := 0; row < sc.GridH; row++ {
				off := l.Offset(s, a, row, 0)
				for col := 0; col < sc.GridW; col, off = col+1, off+ch {
					block := data[off : off+ch : off+ch]

					obj := block[tensor.ChanObj]
					if !(obj > d.gate) {
						continue
					}
					cls, best := argmax(block[tensor.ChanClass0:])
					if act {
						obj = sigmoid(obj)
						best = sigmoid(best)
					}
					score := obj * best
					if !(score > t) {
						continue
					}
					if len(d.cands) == cap(d.cands) {
						dropped++
						continue
					}

					x, y := block[tensor.ChanX], block[tensor.ChanY]
					w, h := block[tensor.ChanW], block[tensor.ChanH]
					if act {
						x, y, w, h = sigmoid(x), sigmoid(y), sigmoid(w), sigmoid(h)
					}
					cx := (x*2 - 0.5 + float32(col)) / gw
					cy := (y*2 - 0.5 + float32(row)) / gh
					bw := (w * 2) * (w * 2) * anchor.W / inW
					bh := (h * 2) * (h * 2) * anchor.H / inH

					d.cands = append(d.cands, Candidate{
						Left:    clamp01(cx - bw/2),
						Top:     clamp01(cy - bh/2),
						Right:   clamp01(cx + bw/2),
						Bottom:  clamp01(cy + bh/2),
						ClassID: cls,
						Score:   score,
					})
				}
			}
		}
	}
	return len(d.cands), dropped
}

// Candidates returns the working set of the last Decode call. The slice is
// reused by the next call.
func (d *Decoder) Candidates() []Candidate {
	return d.cands
}

// argmax returns the first index holding the maximum value.
func argmax(scores []float32) (int, float32) {
	best, idx := scores[0], 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > best {
			best, idx = scores[i], i
		}
	}
	return idx, best
}

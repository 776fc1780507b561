package detector

import (
	"sort"

	"github.com/chewxy/math32"
)

// Suppressor runs greedy class-aware non-maximum suppression with buffers
// sized for a fixed number of candidates.
type Suppressor struct {
	threshold  float32
	order      []int
	suppressed []bool
	kept       []int
	sorter     byScore
}

// NewSuppressor returns a Suppressor for up to capacity candidates. Larger
// inputs still work but grow the buffers.
func NewSuppressor(capacity int, iouThreshold float32) *Suppressor {
	capacity = max(capacity, 0)
	return &Suppressor{
		threshold:  iouThreshold,
		order:      make([]int, 0, capacity),
		suppressed: make([]bool, 0, capacity),
		kept:       make([]int, 0, capacity),
	}
}

// Threshold returns the IoU above which same-class candidates are suppressed.
func (s *Suppressor) Threshold() float32 {
	return s.threshold
}

// Suppress returns indices into cands of the candidates that survive, in
// descending score order. Equal scores keep their scan order. A candidate is
// suppressed by a higher-scored survivor of the same class when their IoU is
// strictly above the threshold. The result is reused by the next call.
func (s *Suppressor) Suppress(cands []Candidate) []int {
	n := len(cands)
	s.order = s.order[:0]
	s.kept = s.kept[:0]
	if n == 0 {
		return s.kept
	}

	for i := range n {
		s.order = append(s.order, i)
	}
	s.sorter.idx, s.sorter.cands = s.order, cands
	sort.Stable(&s.sorter)
	s.sorter.idx, s.sorter.cands = nil, nil

	if cap(s.suppressed) < n {
		s.suppressed = make([]bool, n)
	}
	s.suppressed = s.suppressed[:n]
	clear(s.suppressed)

	for oi, i := range s.order {
		if s.suppressed[i] {
			continue
		}
		s.kept = append(s.kept, i)
		for _, j := range s.order[oi+1:] {
			if s.suppressed[j] || cands[j].ClassID != cands[i].ClassID {
				continue
			}
			if IoU(cands[i], cands[j]) > s.threshold {
				s.suppressed[j] = true
			}
		}
	}
	return s.kept
}

// IoU computes intersection over union of two boxes. It returns 0 when the
// union is empty, so two degenerate boxes never divide by zero.
func IoU(a, b Candidate) float32 {
	iw := math32.Min(a.Right, b.Right) - math32.Max(a.Left, b.Left)
	ih := math32.Min(a.Bottom, b.Bottom) - math32.Max(a.Top, b.Top)
	var inter float32
	if iw > 0 && ih > 0 {
		inter = iw * ih
	}
	// Explicit conversions keep the sum unfused so IoU(a, b) == IoU(b, a).
	union := float32(a.Area()) + float32(b.Area()) - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// byScore orders candidate indices by descending score.
type byScore struct {
	idx   []int
	cands []Candidate
}

func (b *byScore) Len() int           { return len(b.idx) }
func (b *byScore) Less(i, j int) bool { return b.cands[b.idx[i]].Score > b.cands[b.idx[j]].Score }
func (b *byScore) Swap(i, j int)      { b.idx[i], b.idx[j] = b.idx[j], b.idx[i] }

package detector

// Candidate is a decoded box before suppression. Coordinates are normalised
// to the network input and clamped to [0,1].
type Candidate struct {
	Left    float32
	Top     float32
	Right   float32
	Bottom  float32
	ClassID int
	Score   float32 // objectness * best class score
}

// Width of the box in normalised units.
func (c Candidate) Width() float32 { return c.Right - c.Left }

// Height of the box in normalised units.
func (c Candidate) Height() float32 { return c.Bottom - c.Top }

// Area returns the box area, 0 for degenerate boxes.
func (c Candidate) Area() float32 {
	w, h := c.Width(), c.Height()
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

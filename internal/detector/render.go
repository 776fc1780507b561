package detector

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Namer resolves class ids to display names.
type Namer interface {
	Name(classID int) string
}

// ResultJSON is a serialisable representation of one processed tensor.
type ResultJSON struct {
	Source            string          `json:"source,omitempty"`
	Width             int             `json:"width"`
	Height            int             `json:"height"`
	Status            string          `json:"status"`
	DroppedCandidates int             `json:"dropped_candidates,omitempty"`
	Truncated         int             `json:"truncated,omitempty"`
	Detections        []DetectionJSON `json:"detections"`
}

type DetectionJSON struct {
	ClassID     int     `json:"class_id"`
	Label       string  `json:"label,omitempty"`
	Probability float64 `json:"probability"`
	Box         BoxJSON `json:"box"`
}

type BoxJSON struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// NewResultJSON converts a processed result. names may be nil.
func NewResultJSON(source string, width, height int, sum Summary, records []DetectionRecord, names Namer) ResultJSON {
	out := ResultJSON{
		Source:            source,
		Width:             width,
		Height:            height,
		Status:            sum.Status.String(),
		DroppedCandidates: sum.DroppedCandidates,
		Truncated:         sum.Truncated,
		Detections:        []DetectionJSON{},
	}
	if len(records) == 0 {
		return out
	}
	out.Detections = make([]DetectionJSON, 0, len(records))
	for _, r := range records {
		d := DetectionJSON{
			ClassID:     r.ClassID,
			Probability: float64(r.Probability),
			Box:         BoxJSON{X: r.X, Y: r.Y, W: r.Width, H: r.Height},
		}
		if names != nil {
			d.Label = names.Name(r.ClassID)
		}
		out.Detections = append(out.Detections, d)
	}
	return out
}

// Marshal renders r as indented JSON.
func (r ResultJSON) Marshal() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// ParseResultJSON parses and sanity-checks a ResultJSON document.
func ParseResultJSON(data []byte) (ResultJSON, error) {
	var r ResultJSON
	if err := json.Unmarshal(data, &r); err != nil {
		return ResultJSON{}, fmt.Errorf("parse result json: %w", err)
	}
	if r.Width <= 0 || r.Height <= 0 {
		return ResultJSON{}, errors.New("result json: width and height must be positive")
	}
	for i, d := range r.Detections {
		if d.Box.W < 0 || d.Box.H < 0 {
			return ResultJSON{}, fmt.Errorf("result json: detection %d has negative size", i)
		}
		if d.Probability < 0 || d.Probability > 1 {
			return ResultJSON{}, fmt.Errorf("result json: detection %d probability %v out of range", i, d.Probability)
		}
	}
	return r, nil
}

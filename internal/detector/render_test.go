package detector

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticNames []string

func (s staticNames) Name(id int) string {
	if id >= 0 && id < len(s) {
		return s[id]
	}
	return fmt.Sprintf("class_%d", id)
}

func TestResultJSONRoundTrip(t *testing.T) {
	dets := NewDetections(4)
	dets.push(DetectionRecord{X: 10, Y: 20, Width: 30, Height: 40, ClassID: 1, Probability: 0.75})
	dets.push(DetectionRecord{X: 1, Y: 2, Width: 3, Height: 4, ClassID: 9, Probability: 0.5})
	sum := Summary{Status: StatusOK, Candidates: 2, Kept: 2, Written: 2}

	res := NewResultJSON("frame.bin", 1920, 1080, sum, dets.Records(), staticNames{"person", "bicycle"})
	data, err := res.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"status": "ok"`)
	assert.NotContains(t, string(data), "dropped_candidates")

	parsed, err := ParseResultJSON(data)
	require.NoError(t, err)
	assert.Equal(t, res, parsed)
	require.Len(t, parsed.Detections, 2)
	assert.Equal(t, "bicycle", parsed.Detections[0].Label)
	assert.Equal(t, "class_9", parsed.Detections[1].Label)
	assert.Equal(t, BoxJSON{X: 10, Y: 20, W: 30, H: 40}, parsed.Detections[0].Box)
}

func TestResultJSONEmpty(t *testing.T) {
	res := NewResultJSON("", 640, 640, Summary{Status: StatusNoDetection}, nil, nil)
	data, err := res.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"detections": []`)
	assert.Contains(t, string(data), "no_detection")
}

func TestParseResultJSONErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "{"},
		{"zero size", `{"width":0,"height":10,"detections":[]}`},
		{"negative box", `{"width":5,"height":10,"detections":[{"box":{"x":0,"y":0,"w":-1,"h":1},"probability":0.5}]}`},
		{"probability", `{"width":5,"height":10,"detections":[{"box":{"x":0,"y":0,"w":1,"h":1},"probability":1.5}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseResultJSON([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "ok", StatusOK.String())
	assert.Equal(t, "no_detection", StatusNoDetection.String())
	assert.Equal(t, "capacity_exceeded", StatusCapacityExceeded.String())
	assert.Equal(t, "invalid_input", StatusInvalidInput.String())
	assert.Equal(t, "unknown", Status(42).String())
}

func TestDetectionsStorage(t *testing.T) {
	d := NewDetections(2)
	assert.Equal(t, 2, d.Cap())
	assert.False(t, d.full())
	d.push(DetectionRecord{ClassID: 1})
	d.push(DetectionRecord{ClassID: 2})
	assert.True(t, d.full())
	assert.Equal(t, 2, d.At(1).ClassID)
	d.Reset()
	assert.Zero(t, d.Len())
	assert.Equal(t, 2, d.Cap())
	assert.Panics(t, func() { d.At(0) })

	assert.Zero(t, NewDetections(-3).Cap())
}

func TestCapacityError(t *testing.T) {
	err := &CapacityError{DroppedCandidates: 3, Truncated: 1}
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Contains(t, err.Error(), "dropped 3 candidates")
}

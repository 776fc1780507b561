package detector

// DetectionRecord is one final detection in original image pixels.
type DetectionRecord struct {
	X           int
	Y           int
	Width       int
	Height      int
	ClassID     int
	Probability float32
}

// Detections is caller-owned fixed-capacity storage for DetectionRecords.
// Records are kept in descending probability order.
type Detections struct {
	records []DetectionRecord
}

// NewDetections allocates storage for up to capacity records.
func NewDetections(capacity int) *Detections {
	return &Detections{records: make([]DetectionRecord, 0, max(capacity, 0))}
}

// Len is the number of populated records.
func (d *Detections) Len() int { return len(d.records) }

// Cap is the fixed capacity.
func (d *Detections) Cap() int { return cap(d.records) }

// At returns record i. It panics when i is out of range, like a slice index.
func (d *Detections) At(i int) DetectionRecord { return d.records[i] }

// Records returns the populated prefix. The slice aliases the storage and is
// overwritten by the next Process call.
func (d *Detections) Records() []DetectionRecord { return d.records }

// Reset drops all records without releasing storage.
func (d *Detections) Reset() { d.records = d.records[:0] }

func (d *Detections) full() bool { return len(d.records) == cap(d.records) }

func (d *Detections) push(r DetectionRecord) { d.records = append(d.records, r) }

// Status classifies the outcome of one Process call.
type Status int

const (
	StatusOK               Status = iota // at least one detection written
	StatusNoDetection                    // nothing passed the thresholds; not an error
	StatusCapacityExceeded               // results written but bounded by a capacity
	StatusInvalidInput                   // nothing processed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNoDetection:
		return "no_detection"
	case StatusCapacityExceeded:
		return "capacity_exceeded"
	case StatusInvalidInput:
		return "invalid_input"
	default:
		return "unknown"
	}
}

// Summary reports the counts of one Process call.
type Summary struct {
	Status            Status
	Candidates        int // candidates stored by the decoder
	Kept              int // survivors of suppression
	Written           int // records written to the output
	DroppedCandidates int // gate passers beyond the working capacity
	Truncated         int // survivors beyond the output capacity
}

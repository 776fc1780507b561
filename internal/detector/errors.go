package detector

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput reports a call that could not be processed at all:
	// missing or mis-sized tensor, missing output storage or a non-positive
	// original image size.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCapacityExceeded reports that results were bounded by a working or
	// output capacity. The bounded results are still written.
	ErrCapacityExceeded = errors.New("capacity exceeded")
)

// CapacityError carries the counts behind ErrCapacityExceeded.
type CapacityError struct {
	DroppedCandidates int // candidates past the working capacity, in scan order
	Truncated         int // kept detections past the output capacity, lowest scores
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%s: dropped %d candidates, truncated %d detections",
		ErrCapacityExceeded, e.DroppedCandidates, e.Truncated)
}

func (e *CapacityError) Unwrap() error {
	return ErrCapacityExceeded
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

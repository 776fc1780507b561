// Package labels maps detector class ids to display names.
package labels

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Set is an immutable id -> name table.
type Set struct {
	names []string
	index map[string]int
}

// New builds a Set from names in class id order. Names are NFC-normalised and trimmed.
func New(names []string) (*Set, error) {
	if len(names) == 0 {
		return nil, errors.New("label set is empty")
	}
	s := &Set{names: make([]string, len(names)), index: make(map[string]int, len(names))}
	for i, n := range names {
		n = norm.NFC.String(strings.TrimSpace(n))
		if n == "" {
			return nil, fmt.Errorf("label %d is empty", i)
		}
		s.names[i] = n
		// Keep the first id on duplicates.
		if _, ok := s.index[n]; !ok {
			s.index[n] = i
		}
	}
	return s, nil
}

// Read parses one label per non-empty line. A UTF-8 BOM on the first line is dropped.
func Read(r io.Reader) (*Set, error) {
	scanner := bufio.NewScanner(r)
	names := make([]string, 0, 128)
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			line = strings.TrimPrefix(line, "\uFEFF")
			first = false
		}
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed reading labels: %w", err)
	}
	return New(names)
}

// Load reads a label file from path.
func Load(path string) (*Set, error) {
	if path == "" {
		return nil, errors.New("labels path cannot be empty")
	}
	f, err := os.Open(path) //nolint:gosec // G304: user-provided labels file
	if err != nil {
		return nil, fmt.Errorf("failed to open labels: %w", err)
	}
	defer func() { _ = f.Close() }()

	s, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Len is the number of classes.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.names)
}

// Name returns the label for id, or "class_<id>" when id is out of range.
func (s *Set) Name(id int) string {
	if s == nil || id < 0 || id >= len(s.names) {
		return fmt.Sprintf("class_%d", id)
	}
	return s.names[id]
}

// ID looks a label up by name.
func (s *Set) ID(name string) (int, bool) {
	id, ok := s.index[norm.NFC.String(strings.TrimSpace(name))]
	return id, ok
}

// Names returns a copy of the labels in id order.
func (s *Set) Names() []string {
	return append([]string(nil), s.names...)
}

// CheckCount reports an error when the set does not cover numClasses ids.
func (s *Set) CheckCount(numClasses int) error {
	if s.Len() != numClasses {
		return fmt.Errorf("label set has %d names, model has %d classes", s.Len(), numClasses)
	}
	return nil
}

// COCO returns the 80 COCO class names used by stock YOLOv7 weights.
func COCO() *Set {
	s, err := New(cocoNames)
	if err != nil {
		panic(err)
	}
	return s
}

var cocoNames = []string{
	"person", "bicycle", "car", "motorcycle", "airplane", "bus", "train", "truck", "boat", "traffic light",
	"fire hydrant", "stop sign", "parking meter", "bench", "bird", "cat", "dog", "horse", "sheep", "cow",
	"elephant", "bear", "zebra", "giraffe", "backpack", "umbrella", "handbag", "tie", "suitcase", "frisbee",
	"skis", "snowboard", "sports ball", "kite", "baseball bat", "baseball glove", "skateboard", "surfboard",
	"tennis racket", "bottle", "wine glass", "cup", "fork", "knife", "spoon", "bowl", "banana", "apple",
	"sandwich", "orange", "broccoli", "carrot", "hot dog", "pizza", "donut", "cake", "chair", "couch",
	"potted plant", "bed", "dining table", "toilet", "tv", "laptop", "mouse", "remote", "keyboard", "cell phone",
	"microwave", "oven", "toaster", "sink", "refrigerator", "book", "clock", "vase", "scissors", "teddy bear",
	"hair drier", "toothbrush",
}

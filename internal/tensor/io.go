package tensor

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/MeKo-Tech/yolopost/internal/mempool"
)

// ReadRaw reads a little-endian float32 dump of exactly layout.Len() values.
// The returned buffer comes from mempool and should be released with
// mempool.PutFloat32 once processing is done.
func ReadRaw(r io.Reader, layout *Layout) ([]float32, error) {
	if layout == nil {
		return nil, errors.New("nil layout")
	}
	n := layout.Len()
	buf := mempool.GetFloat32(n)
	raw := make([]byte, 4*4096)
	read := 0
	for read < n {
		chunk := min(n-read, len(raw)/4)
		if _, err := io.ReadFull(r, raw[:chunk*4]); err != nil {
			mempool.PutFloat32(buf)
			if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%w: got %d values, want %d", ErrShapeMismatch, read, n)
			}
			return nil, fmt.Errorf("reading tensor: %w", err)
		}
		for i := 0; i < chunk; i++ {
			buf[read+i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
		}
		read += chunk
	}
	// Trailing data means the dump came from a different layout.
	var probe [1]byte
	if m, _ := r.Read(probe[:]); m > 0 {
		mempool.PutFloat32(buf)
		return nil, fmt.Errorf("%w: trailing data after %d values", ErrShapeMismatch, n)
	}
	return buf, nil
}

// ReadRawFile opens path and reads it with ReadRaw.
func ReadRawFile(path string, layout *Layout) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tensor file: %w", err)
	}
	defer func() { _ = f.Close() }()

	data, err := ReadRaw(f, layout)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return data, nil
}

// WriteRaw writes data as little-endian float32 values.
func WriteRaw(w io.Writer, data []float32) error {
	return binary.Write(w, binary.LittleEndian, data)
}

// WriteRawFile writes data to path, replacing any existing file.
func WriteRawFile(path string, data []float32) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create tensor file: %w", err)
	}
	if err := WriteRaw(f, data); err != nil {
		_ = f.Close()
		return fmt.Errorf("write tensor file: %w", err)
	}
	return f.Close()
}

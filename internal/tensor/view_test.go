package tensor

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/yolopost/internal/mempool"
)

func smallLayout(t *testing.T) *Layout {
	t.Helper()
	l, err := NewLayout(2, 16, 16, []int{8}, [][]Anchor{{{4, 4}}})
	require.NoError(t, err)
	return l
}

func TestNewViewErrors(t *testing.T) {
	l := smallLayout(t)

	_, err := NewView(nil, l)
	assert.Error(t, err)

	_, err = NewView(make([]float32, 3), l)
	assert.True(t, errors.Is(err, ErrShapeMismatch))

	_, err = NewView(make([]float32, l.Len()), nil)
	assert.Error(t, err)
}

func TestViewBlock(t *testing.T) {
	l := smallLayout(t)
	data := make([]float32, l.Len())
	for i := range data {
		data[i] = float32(i)
	}
	v, err := NewView(data, l)
	require.NoError(t, err)

	block := v.Block(0, 0, 1, 1)
	require.Len(t, block, l.Channels())
	assert.Equal(t, float32(l.Offset(0, 0, 1, 1)), block[ChanX])
	assert.Equal(t, block[ChanObj], v.At(0, 0, 1, 1, ChanObj))
	assert.Equal(t, cap(block), len(block), "block must not expose the next cell")
}

func TestRawRoundTrip(t *testing.T) {
	l := smallLayout(t)
	data := make([]float32, l.Len())
	for i := range data {
		data[i] = float32(i) * 0.25
	}

	var buf bytes.Buffer
	require.NoError(t, WriteRaw(&buf, data))
	assert.Equal(t, 4*l.Len(), buf.Len())

	got, err := ReadRaw(&buf, l)
	require.NoError(t, err)
	defer mempool.PutFloat32(got)
	assert.Equal(t, data, got)
}

func TestReadRawShapeErrors(t *testing.T) {
	l := smallLayout(t)

	short := bytes.NewReader(make([]byte, 4*(l.Len()-1)))
	_, err := ReadRaw(short, l)
	assert.True(t, errors.Is(err, ErrShapeMismatch))

	long := bytes.NewReader(make([]byte, 4*(l.Len()+1)))
	_, err = ReadRaw(long, l)
	assert.True(t, errors.Is(err, ErrShapeMismatch))
}

func TestRawFileRoundTrip(t *testing.T) {
	l := smallLayout(t)
	path := filepath.Join(t.TempDir(), "out.bin")
	data := make([]float32, l.Len())
	data[ChanObj] = 0.75
	require.NoError(t, WriteRawFile(path, data))

	got, err := ReadRawFile(path, l)
	require.NoError(t, err)
	assert.Equal(t, float32(0.75), got[ChanObj])

	_, err = ReadRawFile(filepath.Join(t.TempDir(), "missing.bin"), l)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestStats(t *testing.T) {
	minV, maxV, mean := Stats([]float32{1, -1, 3})
	assert.Equal(t, float32(-1), minV)
	assert.Equal(t, float32(3), maxV)
	assert.InDelta(t, 1, mean, 1e-6)

	minV, maxV, mean = Stats(nil)
	assert.Zero(t, minV+maxV+mean)
}

package detector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/yolopost/internal/tensor"
	"github.com/MeKo-Tech/yolopost/internal/tensor/mock"
)

func decodeOnce(t *testing.T, l *tensor.Layout, cfg DecoderConfig, data []float32) ([]Candidate, int) {
	t.Helper()
	d, err := NewDecoder(l, cfg)
	require.NoError(t, err)
	v, err := tensor.NewView(data, l)
	require.NoError(t, err)
	n, dropped := d.Decode(v)
	require.Len(t, d.Candidates(), n)
	return d.Candidates(), dropped
}

func defaultDecoderConfig() DecoderConfig {
	return DecoderConfig{ConfidenceThreshold: 0.5, MaxCandidates: 512, PreActivated: true}
}

func TestDecoder_SingleCell(t *testing.T) {
	l := defaultLayout(t)
	data := mock.NewWithObjects(l, mock.At(0, 0, 10, 10, 0, 0.9, 0.9))

	cands, dropped := decodeOnce(t, l, defaultDecoderConfig(), data)
	require.Len(t, cands, 1)
	assert.Zero(t, dropped)

	c := cands[0]
	assert.Equal(t, 0, c.ClassID)
	assert.InDelta(t, 0.81, c.Score, 1e-6)

	// Centre (10.5/80, 10.5/80), size 12x16 input pixels.
	cx, cy := 10.5/80.0, 10.5/80.0
	bw, bh := 12/640.0, 16/640.0
	assert.InDelta(t, cx-bw/2, c.Left, 1e-6)
	assert.InDelta(t, cx+bw/2, c.Right, 1e-6)
	assert.InDelta(t, cy-bh/2, c.Top, 1e-6)
	assert.InDelta(t, cy+bh/2, c.Bottom, 1e-6)
}

func TestDecoder_Gates(t *testing.T) {
	l := defaultLayout(t)
	tests := []struct {
		name       string
		obj, class float32
		want       int
	}{
		{"both high", 0.9, 0.9, 1},
		{"objectness at threshold", 0.5, 1.0, 0},
		{"objectness below threshold", 0.4, 1.0, 0},
		{"combined at threshold", 1.0, 0.5, 0},
		{"combined below threshold", 0.7, 0.7, 0},
		{"combined just above", 0.75, 0.7, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := mock.NewWithObjects(l, mock.At(1, 1, 5, 7, 3, tt.obj, tt.class))
			cands, _ := decodeOnce(t, l, defaultDecoderConfig(), data)
			assert.Len(t, cands, tt.want)
		})
	}
}

func TestDecoder_ArgmaxFirstWinsOnTie(t *testing.T) {
	l := defaultLayout(t)
	data := mock.NewWithObjects(l, mock.At(2, 0, 3, 3, 7, 0.9, 0.8))
	off := l.Offset(2, 0, 3, 3)
	data[off+tensor.ChanClass0+2] = 0.8 // same score, lower index

	cands, _ := decodeOnce(t, l, defaultDecoderConfig(), data)
	require.Len(t, cands, 1)
	assert.Equal(t, 2, cands[0].ClassID)
}

func TestDecoder_ScanOrder(t *testing.T) {
	l := defaultLayout(t)
	data := mock.NewWithObjects(l,
		mock.At(2, 0, 0, 0, 1, 0.9, 0.9),
		mock.At(0, 2, 0, 0, 2, 0.9, 0.9),
		mock.At(0, 0, 1, 0, 3, 0.9, 0.9),
		mock.At(0, 0, 0, 5, 4, 0.9, 0.9),
	)
	cands, _ := decodeOnce(t, l, defaultDecoderConfig(), data)
	require.Len(t, cands, 4)

	var classes []int
	for _, c := range cands {
		classes = append(classes, c.ClassID)
	}
	// scale, then anchor, then row, then col
	assert.Equal(t, []int{4, 3, 2, 1}, classes)
}

func TestDecoder_ClampsCorners(t *testing.T) {
	l := defaultLayout(t)
	o := mock.At(2, 2, 0, 0, 0, 0.95, 0.95)
	o.W, o.H = 1, 1 // 4x the largest anchor, far beyond the image
	data := mock.NewWithObjects(l, o)

	cands, _ := decodeOnce(t, l, defaultDecoderConfig(), data)
	require.Len(t, cands, 1)
	c := cands[0]
	assert.Equal(t, float32(0), c.Left)
	assert.Equal(t, float32(0), c.Top)
	assert.Equal(t, float32(1), c.Right)
	assert.Equal(t, float32(1), c.Bottom)
}

func TestDecoder_CapacityKeepsFirstEncountered(t *testing.T) {
	l := defaultLayout(t)
	data := mock.NewWithObjects(l,
		mock.At(0, 0, 0, 0, 1, 0.9, 0.9),
		mock.At(0, 0, 0, 1, 2, 0.9, 0.9),
		mock.At(0, 0, 0, 2, 3, 0.99, 0.99),
	)
	cfg := defaultDecoderConfig()
	cfg.MaxCandidates = 2

	cands, dropped := decodeOnce(t, l, cfg, data)
	require.Len(t, cands, 2)
	assert.Equal(t, 1, dropped)
	assert.Equal(t, 1, cands[0].ClassID)
	assert.Equal(t, 2, cands[1].ClassID)
}

func TestDecoder_RawLogitsMatchActivated(t *testing.T) {
	l := defaultLayout(t)
	objs := []mock.Object{
		mock.At(0, 0, 10, 10, 0, 0.9, 0.9),
		mock.At(1, 2, 4, 30, 12, 0.8, 0.95),
		mock.At(2, 1, 19, 0, 79, 0.6, 0.7), // combined 0.42, gated out
	}
	activated := mock.NewWithObjects(l, objs...)
	logits := mock.ToLogits(mock.NewWithObjects(l, objs...))

	want, _ := decodeOnce(t, l, defaultDecoderConfig(), activated)
	want = append([]Candidate(nil), want...)

	cfg := defaultDecoderConfig()
	cfg.PreActivated = false
	got, _ := decodeOnce(t, l, cfg, logits)

	require.Len(t, want, 2)
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ClassID, got[i].ClassID)
		assert.InDelta(t, want[i].Score, got[i].Score, 1e-4)
		assert.InDelta(t, want[i].Left, got[i].Left, 1e-4)
		assert.InDelta(t, want[i].Top, got[i].Top, 1e-4)
		assert.InDelta(t, want[i].Right, got[i].Right, 1e-4)
		assert.InDelta(t, want[i].Bottom, got[i].Bottom, 1e-4)
	}
}

func TestDecoder_NaNIsIgnored(t *testing.T) {
	l := defaultLayout(t)
	data := mock.NewWithObjects(l, mock.At(0, 0, 1, 1, 0, 0.9, 0.9))
	nan := float32(0)
	nan = nan / nan
	data[l.Offset(0, 0, 2, 2)+tensor.ChanObj] = nan

	off := l.Offset(0, 0, 1, 1)
	data[off+tensor.ChanX] = nan

	cands, _ := decodeOnce(t, l, defaultDecoderConfig(), data)
	require.Len(t, cands, 1)
	c := cands[0]
	assert.True(t, c.Left >= 0 && c.Left <= c.Right && c.Right <= 1)
}

func TestDecoder_ReusesBuffer(t *testing.T) {
	l := defaultLayout(t)
	d, err := NewDecoder(l, defaultDecoderConfig())
	require.NoError(t, err)

	v1, err := tensor.NewView(mock.NewWithObjects(l, mock.At(0, 0, 1, 1, 0, 0.9, 0.9), mock.At(0, 0, 2, 2, 0, 0.9, 0.9)), l)
	require.NoError(t, err)
	v2, err := tensor.NewView(mock.NewEmpty(l), l)
	require.NoError(t, err)

	n, _ := d.Decode(v1)
	assert.Equal(t, 2, n)
	n, _ = d.Decode(v2)
	assert.Zero(t, n)
	assert.Equal(t, 512, cap(d.Candidates()))
}

func TestNewDecoderErrors(t *testing.T) {
	l := defaultLayout(t)
	_, err := NewDecoder(nil, defaultDecoderConfig())
	assert.Error(t, err)

	cfg := defaultDecoderConfig()
	cfg.MaxCandidates = 0
	_, err = NewDecoder(l, cfg)
	assert.Error(t, err)

	cfg = defaultDecoderConfig()
	cfg.ConfidenceThreshold = 1.5
	_, err = NewDecoder(l, cfg)
	assert.Error(t, err)
}

func BenchmarkDecoder_Sparse(b *testing.B) {
	l := defaultLayout(b)
	data := mock.NewWithObjects(l,
		mock.At(0, 0, 10, 10, 0, 0.9, 0.9),
		mock.At(1, 1, 20, 20, 5, 0.9, 0.9),
		mock.At(2, 2, 5, 5, 9, 0.9, 0.9),
	)
	d, err := NewDecoder(l, defaultDecoderConfig())
	require.NoError(b, err)
	v, err := tensor.NewView(data, l)
	require.NoError(b, err)

	b.ReportAllocs()
	b.ResetTimer()
	for b.Loop() {
		d.Decode(v)
	}
}

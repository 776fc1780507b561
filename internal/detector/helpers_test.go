package detector

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/yolopost/internal/tensor"
)

func defaultLayout(t testing.TB) *tensor.Layout {
	t.Helper()
	l, err := tensor.DefaultLayout(tensor.DefaultNumClasses)
	require.NoError(t, err)
	return l
}

// tinyLayout keeps property tests fast: 3 classes, 32x32 input, two scales.
func tinyLayout(t testing.TB) *tensor.Layout {
	t.Helper()
	l, err := tensor.NewLayout(3, 32, 32, []int{8, 16}, [][]tensor.Anchor{
		{{W: 4, H: 6}, {W: 8, H: 8}},
		{{W: 16, H: 12}},
	})
	require.NoError(t, err)
	return l
}

func newPostprocessor(t testing.TB, mutate func(*Config)) *Postprocessor {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	p, err := NewPostprocessor(cfg)
	require.NoError(t, err)
	return p
}

func box(left, top, right, bottom float32, class int, score float32) Candidate {
	return Candidate{Left: left, Top: top, Right: right, Bottom: bottom, ClassID: class, Score: score}
}

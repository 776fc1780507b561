package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/yolopost/internal/tensor"
	"github.com/MeKo-Tech/yolopost/internal/tensor/mock"
)

func TestSynthWritesDecodableTensor(t *testing.T) {
	isolate(t)
	out, _, err := runCLI(t, "synth", "two.bin",
		"--object", "0,0,40,40,0,0.9",
		"--object", "2,1,5,5,16,0.7")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote two.bin")
	assert.Contains(t, out, "2 objects")

	l, err := tensor.DefaultLayout(tensor.DefaultNumClasses)
	require.NoError(t, err)
	data, err := tensor.ReadRawFile("two.bin", l)
	require.NoError(t, err)
	view, err := tensor.NewView(data, l)
	require.NoError(t, err)
	assert.Equal(t, 2, tensor.ObjectnessAbove(view, 0.5))
	assert.InDelta(t, 0.7, view.At(2, 1, 5, 5, tensor.ChanObj), 1e-6)
	assert.InDelta(t, 1.0, view.At(2, 1, 5, 5, tensor.ChanClass0+16), 1e-6)
}

func TestSynthUniform(t *testing.T) {
	isolate(t)
	_, _, err := runCLI(t, "synth", "flat.bin", "--uniform", "0.3")
	require.NoError(t, err)

	l, err := tensor.DefaultLayout(tensor.DefaultNumClasses)
	require.NoError(t, err)
	data, err := tensor.ReadRawFile("flat.bin", l)
	require.NoError(t, err)
	minVal, maxVal, _ := tensor.Stats(data)
	assert.InDelta(t, 0.3, minVal, 1e-6)
	assert.InDelta(t, 0.3, maxVal, 1e-6)
}

func TestSynthErrors(t *testing.T) {
	isolate(t)
	tests := []struct {
		name string
		args []string
	}{
		{"no file", []string{"synth"}},
		{"short object", []string{"synth", "x.bin", "--object", "0,0,1"}},
		{"bad number", []string{"synth", "x.bin", "--object", "0,0,a,1,0,0.5"}},
		{"scale", []string{"synth", "x.bin", "--object", "3,0,1,1,0,0.5"}},
		{"anchor", []string{"synth", "x.bin", "--object", "0,3,1,1,0,0.5"}},
		{"cell", []string{"synth", "x.bin", "--object", "2,0,20,1,0,0.5"}},
		{"class", []string{"synth", "x.bin", "--object", "0,0,1,1,80,0.5"}},
		{"score", []string{"synth", "x.bin", "--object", "0,0,1,1,0,1.5"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runCLI(t, tt.args...)
			require.Error(t, err)
		})
	}
}

func TestParseObject(t *testing.T) {
	l, err := tensor.DefaultLayout(tensor.DefaultNumClasses)
	require.NoError(t, err)

	obj, err := parseObject(" 1, 2, 3, 4, 5, 0.25 ", l)
	require.NoError(t, err)
	assert.Equal(t, mock.At(1, 2, 3, 4, 5, 0.25, 1), obj)
}

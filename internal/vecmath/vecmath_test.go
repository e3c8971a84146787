package vecmath

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsDegenerate(t *testing.T) {
	tests := []struct {
		name string
		v    []float32
		want bool
	}{
		{"nil", nil, true},
		{"all zero", []float32{0, 0, 0}, true},
		{"NaN", []float32{1, float32(math.NaN())}, true},
		{"Inf", []float32{float32(math.Inf(1)), 0}, true},
		{"ok", []float32{0, 0.5}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDegenerate(tt.v))
		})
	}
}

func TestNormalize(t *testing.T) {
	v := Normalize([]float32{3, 4})

	assert.InDelta(t, 0.6, v[0], 1e-6)
	assert.InDelta(t, 0.8, v[1], 1e-6)
	assert.InDelta(t, 1.0, Norm(v), 1e-6)
	assert.Nil(t, Normalize([]float32{0, 0}))
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	in := []float32{3, 4}
	_ = Normalize(in)
	assert.Equal(t, []float32{3, 4}, in)
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{1, 2}, []float32{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, Cosine([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Zero(t, Cosine([]float32{1}, []float32{1, 2}))
	assert.Zero(t, Cosine([]float32{0, 0}, []float32{1, 2}))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-0.5, 0, 1))
	assert.Equal(t, 1.0, Clamp(1.5, 0, 1))
	assert.Equal(t, 0.3, Clamp(0.3, 0, 1))
}

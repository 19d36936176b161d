package softmax

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sum(xs []float64) float64 {
	s := 0.0
	for _, x := range xs {
		s += x
	}
	return s
}

func TestCalculateSumsToOne(t *testing.T) {
	cases := [][]float64{
		{1.0, 2.0, 3.0},
		{-5.0, 0.0, 5.0, 10.0},
		{0.0},
		{100.0, -100.0, 50.0, -50.0},
	}
	for _, scores := range cases {
		probs := Calculate(scores, 1.0)
		require.Len(t, probs, len(scores))
		assert.InDelta(t, 1.0, sum(probs), 1e-5)
		for _, p := range probs {
			assert.GreaterOrEqual(t, p, 0.0)
		}
	}
}

func TestCalculateDegenerateIsUniform(t *testing.T) {
	probs := Calculate([]float64{5, 5, 5, 5}, 1.0)
	require.Len(t, probs, 4)
	for _, p := range probs {
		assert.Equal(t, 0.25, p)
	}
}

func TestCalculateFallsBackOnNaN(t *testing.T) {
	probs := Calculate([]float64{1, math.NaN(), 3}, 1.0)
	require.Len(t, probs, 3)
	for _, p := range probs {
		assert.InDelta(t, 1.0/3.0, p, 1e-9)
	}
}

func TestCalculateKnownValues(t *testing.T) {
	// exp((scores-3)*2) / sum(exp((scores-3)*2)) for scores = [1, 2, 3].
	probs := Calculate([]float64{1.0, 2.0, 3.0}, 2.0)
	require.Len(t, probs, 3)
	expected := []float64{0.015876, 0.117310, 0.866813}
	for i := range expected {
		assert.InDelta(t, expected[i], probs[i], 1e-4)
	}
}

func TestCalculateStrictOrderingPreserved(t *testing.T) {
	probs := Calculate([]float64{1.0, 2.0, 3.0, 4.0}, 0.5)
	for i := 1; i < len(probs); i++ {
		assert.Greater(t, probs[i], probs[i-1])
	}
}

func TestCalculateShiftInvariant(t *testing.T) {
	a := Calculate([]float64{1.0, 2.0, 3.0}, 1.0)
	b := Calculate([]float64{101.0, 102.0, 103.0}, 1.0)
	for i := range a {
		assert.InDelta(t, a[i], b[i], 1e-6)
	}
}

func TestCalculateEmptyInput(t *testing.T) {
	probs := Calculate([]float64{}, 1.0)
	assert.Empty(t, probs)
}

func TestCalculateInvalidLambdaFallsBack(t *testing.T) {
	probs := Calculate([]float64{1, 2, 3}, 0.0009)
	for _, p := range probs {
		assert.InDelta(t, 1.0/3.0, p, 1e-9)
	}
	probs = Calculate([]float64{1, 2, 3}, 10.001)
	for _, p := range probs {
		assert.InDelta(t, 1.0/3.0, p, 1e-9)
	}
}

func TestUniform(t *testing.T) {
	assert.Nil(t, Uniform(0))
	u := Uniform(4)
	require.Len(t, u, 4)
	for _, p := range u {
		assert.Equal(t, 0.25, p)
	}
}

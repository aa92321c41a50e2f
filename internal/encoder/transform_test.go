package encoder

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSpladeTransform_MaxAcrossPositions(t *testing.T) {
	logits := [][]float32{
		{1.0, -2.0, 0.5},
		{0.2, 3.0, -1.0},
	}
	mask := []int64{1, 1}

	vec := spladeTransform(logits, mask)

	require.InDelta(t, math.Log1p(1.0), vec[0], 1e-9)
	require.InDelta(t, math.Log1p(3.0), vec[1], 1e-9)
	require.InDelta(t, math.Log1p(0.5), vec[2], 1e-9)
}

func TestSpladeTransform_NegativeLogitsDropOut(t *testing.T) {
	logits := [][]float32{{-1.0, -5.0}}
	mask := []int64{1}

	vec := spladeTransform(logits, mask)
	require.Empty(t, vec)
}

func TestSpladeTransform_MaskedPositionIgnored(t *testing.T) {
	logits := [][]float32{
		{5.0},
		{9.0}, // masked out, should not contribute
	}
	mask := []int64{1, 0}

	vec := spladeTransform(logits, mask)
	require.InDelta(t, math.Log1p(5.0), vec[0], 1e-9)
}

func TestSpladeTransform_EmptyInput(t *testing.T) {
	vec := spladeTransform(nil, nil)
	require.Empty(t, vec)
}

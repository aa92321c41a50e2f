package denseindex

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestRankCandidates_DedupPreservesFirstOccurrence mirrors the documented
// dense-search scenario: raw neighbor ids [5,5,7,5,9,7,2,8] collapse to the
// first occurrence of each id, scored by 1/(distance+epsilon).
func TestRankCandidates_DedupPreservesFirstOccurrence(t *testing.T) {
	candidates := []neighborCandidate{
		{DocumentID: "5", Distance: 0.1},
		{DocumentID: "5", Distance: 0.2}, // duplicate, dropped
		{DocumentID: "7", Distance: 0.3},
		{DocumentID: "5", Distance: 0.4}, // duplicate, dropped
		{DocumentID: "9", Distance: 0.5},
		{DocumentID: "7", Distance: 0.6}, // duplicate, dropped
		{DocumentID: "2", Distance: 0.7},
		{DocumentID: "8", Distance: 0.8},
	}

	results := rankCandidates(candidates, 8)

	require.Len(t, results, 5)
	wantOrder := []string{"5", "7", "9", "2", "8"}
	for i, id := range wantOrder {
		require.Equal(t, id, results[i].DocumentID)
	}
	require.InDelta(t, 1.0/(0.1+scoreEpsilon), results[0].Score, 1e-6)
	require.InDelta(t, 1.0/(0.3+scoreEpsilon), results[1].Score, 1e-6)
	require.InDelta(t, 1.0/(0.5+scoreEpsilon), results[2].Score, 1e-6)
}

func TestRankCandidates_TruncatesToK(t *testing.T) {
	candidates := []neighborCandidate{
		{DocumentID: "a", Distance: 0.0},
		{DocumentID: "b", Distance: 0.1},
		{DocumentID: "c", Distance: 0.2},
	}

	results := rankCandidates(candidates, 2)
	require.Len(t, results, 2)
	require.Equal(t, "a", results[0].DocumentID)
	require.Equal(t, "b", results[1].DocumentID)
}

func TestRankCandidates_EmptyInput(t *testing.T) {
	results := rankCandidates(nil, 5)
	require.Empty(t, results)
}

func TestRankCandidates_ZeroDistanceDoesNotDivideByZero(t *testing.T) {
	results := rankCandidates([]neighborCandidate{{DocumentID: "x", Distance: 0}}, 1)
	require.Len(t, results, 1)
	require.InDelta(t, 1.0/scoreEpsilon, results[0].Score, 1e-3)
}

package fusion

import (
	"testing"

	"github.com/knoguchi/paperfind/internal/retrieval"
	"github.com/stretchr/testify/require"
)

func scored(ids ...string) []retrieval.ScoredDoc {
	docs := make([]retrieval.ScoredDoc, len(ids))
	for i, id := range ids {
		docs[i] = retrieval.ScoredDoc{DocumentID: id}
	}
	return docs
}

// TestRRF_DocumentedExample mirrors the canonical fusion scenario:
// dense=[A,B,C], sparse=[B,D,A], k=3 -> B:1.5, A:1.333.., D:0.5, ordered
// [B, A, D].
func TestRRF_DocumentedExample(t *testing.T) {
	dense := scored("A", "B", "C")
	sparse := scored("B", "D", "A")

	results := RRF(dense, sparse, 3)

	require.Len(t, results, 3)
	require.Equal(t, "B", results[0].DocumentID)
	require.InDelta(t, 1.5, results[0].Score, 1e-9)
	require.Equal(t, "A", results[1].DocumentID)
	require.InDelta(t, 1.0+1.0/3.0, results[1].Score, 1e-9)
	require.Equal(t, "D", results[2].DocumentID)
	require.InDelta(t, 0.5, results[2].Score, 1e-9)
}

func TestRRF_DisjointLists(t *testing.T) {
	dense := scored("A", "B")
	sparse := scored("C", "D")

	results := RRF(dense, sparse, 10)
	require.Len(t, results, 4)
	// A and C both rank 1 in their own list (score 1.0); tie broken by id.
	require.Equal(t, "A", results[0].DocumentID)
	require.Equal(t, "C", results[1].DocumentID)
	require.Equal(t, "B", results[2].DocumentID)
	require.Equal(t, "D", results[3].DocumentID)
}

func TestRRF_EmptyLists(t *testing.T) {
	results := RRF(nil, nil, 10)
	require.Empty(t, results)
}

func TestRRF_TruncatesToK(t *testing.T) {
	dense := scored("A", "B", "C", "D", "E")
	results := RRF(dense, nil, 2)
	require.Len(t, results, 2)
	require.Equal(t, "A", results[0].DocumentID)
	require.Equal(t, "B", results[1].DocumentID)
}

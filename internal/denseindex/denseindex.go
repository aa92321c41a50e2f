// Package denseindex performs approximate nearest-neighbor search over the
// on-disk ANN index built from document embeddings.
package denseindex

import (
	"context"

	"github.com/knoguchi/paperfind/internal/retrieval"
)

// Index ranks documents by vector similarity to a query embedding.
type Index interface {
	// Search returns the top k documents nearest to query, deduplicated by
	// first occurrence, scored as 1/(distance+epsilon).
	Search(ctx context.Context, query retrieval.DenseVector, k int) ([]retrieval.ScoredDoc, error)

	Close() error
}

// scoreEpsilon matches the numeric policy fixed by the reference service:
// scores are computed as 1/(distance+epsilon) so an exact-match distance of
// zero never divides by zero.
const scoreEpsilon = 1e-8

// overfetchFactor controls how many more neighbors are requested from the
// graph than ultimately returned, to leave room for dropping duplicate
// documents (an HNSW graph can hold multiple chunks/vectors per document).
const overfetchFactor = 4

// seenSet tracks which document ids have already been emitted while a
// caller walks a ranked neighbor list in order, so first-occurrence
// deduplication never depends on map iteration order — only on the order
// the caller visits candidates in.
type seenSet map[string]struct{}

// addIfNew reports whether id was newly added (true) or already present.
func (s seenSet) addIfNew(id string) bool {
	if _, ok := s[id]; ok {
		return false
	}
	s[id] = struct{}{}
	return true
}

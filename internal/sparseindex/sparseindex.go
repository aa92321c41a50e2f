// Package sparseindex scores queries against the on-disk inverted index.
package sparseindex

import (
	"context"

	"github.com/knoguchi/paperfind/internal/retrieval"
)

// Scorer ranks documents against a sparse query vector.
type Scorer interface {
	// Search returns the top k documents by summed term weight, descending,
	// for the given sparse query vector.
	Search(ctx context.Context, query retrieval.SparseVector, k int) ([]retrieval.ScoredDoc, error)

	// Documents returns every document known to the index.
	Documents(ctx context.Context) ([]retrieval.Document, error)

	// DocumentIndex returns the numeric-id to filename mapping the ANN
	// index's internal slot ids resolve against — the same id-slot table
	// the sparse index's documents table mirrors.
	DocumentIndex(ctx context.Context) (map[int]string, error)

	Close() error
}

// Package fusion combines dense and sparse result lists with an unshifted
// Reciprocal Rank Fusion.
package fusion

import (
	"sort"

	"github.com/knoguchi/paperfind/internal/retrieval"
)

// RRF fuses exactly two rank-ordered result lists (dense and sparse) into a
// single ranking. Unlike the classic RRF formula, there is no smoothing
// constant added to the rank denominator and no per-source weighting: a
// document's contribution from a list is exactly 1/rank in that list, rank
// being 1-indexed. A document missing from a list contributes nothing from
// it. Ties are broken by document id for a deterministic order.
func RRF(dense, sparse []retrieval.ScoredDoc, k int) []retrieval.ScoredDoc {
	scores := make(map[string]float64)

	addRanked := func(docs []retrieval.ScoredDoc) {
		for i, d := range docs {
			rank := i + 1
			scores[d.DocumentID] += 1.0 / float64(rank)
		}
	}
	addRanked(dense)
	addRanked(sparse)

	fused := make([]retrieval.ScoredDoc, 0, len(scores))
	for id, score := range scores {
		fused = append(fused, retrieval.ScoredDoc{DocumentID: id, Score: score})
	}

	sort.Slice(fused, func(i, j int) bool {
		if fused[i].Score != fused[j].Score {
			return fused[i].Score > fused[j].Score
		}
		return fused[i].DocumentID < fused[j].DocumentID
	})

	if len(fused) > k {
		fused = fused[:k]
	}
	return fused
}

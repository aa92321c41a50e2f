package denseindex

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/coder/hnsw"

	"github.com/knoguchi/paperfind/internal/apperr"
	"github.com/knoguchi/paperfind/internal/retrieval"
)

// HNSWIndex implements Index using coder/hnsw, a pure-Go HNSW graph. Node
// keys are the same numeric document ids the sparse index's documents
// table assigns, so a single id-to-filename map serves both components.
type HNSWIndex struct {
	graph       *hnsw.Graph[uint64]
	idToDocName map[uint64]string
}

// LoadHNSWIndex imports a previously-exported graph from path and resolves
// its node keys against idToDocName (typically sparseindex.DocumentIndex).
func LoadHNSWIndex(path string, idToDocName map[int]string) (*HNSWIndex, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open dense index %s: %v", apperr.ErrIndexCorruption, path, err)
	}
	defer file.Close()

	graph := hnsw.NewGraph[uint64]()
	reader := bufio.NewReader(file)
	if err := graph.Import(reader); err != nil {
		return nil, fmt.Errorf("%w: import dense index %s: %v", apperr.ErrIndexCorruption, path, err)
	}

	resolved := make(map[uint64]string, len(idToDocName))
	for id, name := range idToDocName {
		resolved[uint64(id)] = name
	}

	return &HNSWIndex{graph: graph, idToDocName: resolved}, nil
}

// neighborCandidate is one ranked neighbor returned by the graph, before
// dedup and the distance-to-score transform are applied.
type neighborCandidate struct {
	DocumentID string
	Distance   float64
}

// Search over-fetches k*overfetchFactor neighbors, deduplicates by first
// occurrence of the resolved document id, converts distance to score with
// the fixed 1/(distance+epsilon) transform, and returns the first k.
func (idx *HNSWIndex) Search(ctx context.Context, query retrieval.DenseVector, k int) ([]retrieval.ScoredDoc, error) {
	if idx.graph.Len() == 0 {
		return nil, nil
	}

	nodes := idx.graph.Search(query, k*overfetchFactor)

	candidates := make([]neighborCandidate, 0, len(nodes))
	for _, node := range nodes {
		docID, ok := idx.idToDocName[node.Key]
		if !ok {
			continue
		}
		distance := idx.graph.Distance(query, node.Value)
		candidates = append(candidates, neighborCandidate{DocumentID: docID, Distance: float64(distance)})
	}

	return rankCandidates(candidates, k), nil
}

// rankCandidates applies first-occurrence dedup and the fixed
// 1/(distance+epsilon) score transform to an already rank-ordered list of
// neighbor candidates, then truncates to k. It is kept free of the hnsw
// graph so the dedup/scoring contract can be tested against exact,
// hand-specified neighbor lists.
func rankCandidates(candidates []neighborCandidate, k int) []retrieval.ScoredDoc {
	seen := make(seenSet)
	results := make([]retrieval.ScoredDoc, 0, k)
	for _, c := range candidates {
		if !seen.addIfNew(c.DocumentID) {
			continue
		}

		results = append(results, retrieval.ScoredDoc{
			DocumentID: c.DocumentID,
			Score:      1.0 / (c.Distance + scoreEpsilon),
		})
		if len(results) == k {
			break
		}
	}
	return results
}

// Close releases the in-memory graph. The graph itself requires no
// explicit cleanup; this exists to satisfy the Index interface and give
// callers a single lifecycle to reason about.
func (idx *HNSWIndex) Close() error {
	idx.graph = nil
	return nil
}

var _ Index = (*HNSWIndex)(nil)

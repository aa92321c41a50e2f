package encoder

import (
	"math"

	"github.com/knoguchi/paperfind/internal/retrieval"
)

// spladeTransform reduces a [seqLen][vocabSize] logits matrix to a sparse
// vocabulary vector: for each position, apply log(1+relu(x)), zero out
// positions the attention mask excludes, then take the element-wise max
// across positions. Only non-zero entries are kept in the result, matching
// the encoder's natural sparsity.
func spladeTransform(logits [][]float32, attentionMask []int64) retrieval.SparseVector {
	if len(logits) == 0 {
		return retrieval.SparseVector{}
	}

	vocabSize := len(logits[0])
	maxed := make([]float64, vocabSize)

	for pos, row := range logits {
		if attentionMask[pos] == 0 {
			continue
		}
		for term, logit := range row {
			activated := math.Log1p(math.Max(float64(logit), 0))
			if activated > maxed[term] {
				maxed[term] = activated
			}
		}
	}

	out := make(retrieval.SparseVector)
	for term, weight := range maxed {
		if weight > 0 {
			out[term] = weight
		}
	}
	return out
}

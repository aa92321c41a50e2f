// Package encoder produces sparse query vectors via a SPLADE-style
// masked-language-model forward pass.
package encoder

import (
	"context"

	"github.com/knoguchi/paperfind/internal/retrieval"
)

// SparseEncoder turns query text into a sparse vector over the model's
// vocabulary.
type SparseEncoder interface {
	EncodeQuery(ctx context.Context, text string) (retrieval.SparseVector, error)

	Close() error
}

// Package extraction turns a paper's document text into a list of
// structured benchmark rows via an LLM, tolerating per-document failures
// without aborting the rest of the batch.
package extraction

import (
	"context"

	"github.com/knoguchi/paperfind/internal/retrieval"
)

// Client extracts structured benchmark rows for a batch of document ids,
// one slice per input id in the same order. A document that fails to
// extract (missing text, malformed LLM output, upstream error) yields a
// nil slot rather than failing the whole batch; a document the LLM reports
// no benchmarks for also yields a nil slot.
type Client interface {
	Extract(ctx context.Context, documentIDs []string) ([][]retrieval.ExtractionResult, error)
}

// TextSource fetches the cleaned document text an extraction prompt is
// built from.
type TextSource interface {
	DocumentText(ctx context.Context, documentID string) (string, error)
}

// Package embedder provides the dense encoder client: turning query text
// into an embedding vector via a remote vendor.
package embedder

import (
	"context"
	"fmt"

	"github.com/knoguchi/paperfind/internal/retrieval"
)

// Embedder turns text into a dense embedding vector.
type Embedder interface {
	Embed(ctx context.Context, text string) (retrieval.DenseVector, error)

	// Dimension returns the dimensionality the embedder produces.
	Dimension() int

	// ModelName returns the model identifier in use, for logging and as a
	// cache-key component.
	ModelName() string
}

// CheckDimension embeds a short probe string and confirms the returned
// vector has the expected length, catching a vendor/model mismatch before
// the service starts serving queries against an index built for a
// different dimensionality.
func CheckDimension(ctx context.Context, e Embedder, want int) error {
	vec, err := e.Embed(ctx, "dimension probe")
	if err != nil {
		return fmt.Errorf("embedder: dimension check: %w", err)
	}
	if len(vec) != want {
		return fmt.Errorf("embedder: dimension mismatch: model %s produced %d dims, index expects %d", e.ModelName(), len(vec), want)
	}
	return nil
}

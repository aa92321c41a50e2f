package embedder

import (
	"context"
	"testing"

	"github.com/knoguchi/paperfind/internal/retrieval"
	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	calls int
	vec   retrieval.DenseVector
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) (retrieval.DenseVector, error) {
	c.calls++
	return c.vec, nil
}

func (c *countingEmbedder) Dimension() int  { return len(c.vec) }
func (c *countingEmbedder) ModelName() string { return "fake-model" }

func TestCachedEmbedder_CachesByText(t *testing.T) {
	inner := &countingEmbedder{vec: retrieval.DenseVector{1, 2, 3}}
	cached := NewCachedEmbedder(inner, 10)

	v1, err := cached.Embed(context.Background(), "hello")
	require.NoError(t, err)
	v2, err := cached.Embed(context.Background(), "hello")
	require.NoError(t, err)

	require.Equal(t, v1, v2)
	require.Equal(t, 1, inner.calls)
}

func TestCachedEmbedder_DistinctTextMissesCache(t *testing.T) {
	inner := &countingEmbedder{vec: retrieval.DenseVector{1, 2, 3}}
	cached := NewCachedEmbedder(inner, 10)

	_, err := cached.Embed(context.Background(), "hello")
	require.NoError(t, err)
	_, err = cached.Embed(context.Background(), "world")
	require.NoError(t, err)

	require.Equal(t, 2, inner.calls)
}

package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/knoguchi/paperfind/internal/retrieval"
)

// DefaultCacheSize bounds the cached embedder when no explicit size is
// configured.
const DefaultCacheSize = 1000

// CachedEmbedder wraps an Embedder with an LRU cache keyed by text+model,
// so repeated queries in an interactive search UI skip the network round
// trip.
type CachedEmbedder struct {
	inner Embedder
	cache *lru.Cache[string, retrieval.DenseVector]
}

// NewCachedEmbedder wraps inner with an LRU cache of the given size.
func NewCachedEmbedder(inner Embedder, cacheSize int) *CachedEmbedder {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, _ := lru.New[string, retrieval.DenseVector](cacheSize)
	return &CachedEmbedder{inner: inner, cache: cache}
}

func (c *CachedEmbedder) cacheKey(text string) string {
	combined := text + "\x00" + c.inner.ModelName()
	hash := sha256.Sum256([]byte(combined))
	return hex.EncodeToString(hash[:])
}

// Embed returns a cached vector if present, otherwise computes, caches, and
// returns it.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) (retrieval.DenseVector, error) {
	key := c.cacheKey(text)

	if vec, ok := c.cache.Get(key); ok {
		return vec, nil
	}

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	c.cache.Add(key, vec)
	return vec, nil
}

// Dimension passes through to the inner embedder.
func (c *CachedEmbedder) Dimension() int {
	return c.inner.Dimension()
}

// ModelName passes through to the inner embedder.
func (c *CachedEmbedder) ModelName() string {
	return c.inner.ModelName()
}

var _ Embedder = (*CachedEmbedder)(nil)

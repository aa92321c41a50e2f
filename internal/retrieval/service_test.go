package retrieval

import (
	"context"
	"testing"

	"github.com/knoguchi/paperfind/internal/apperr"
	"github.com/stretchr/testify/require"
)

type fakeSparseScorer struct {
	docs  map[string][]ScoredDoc // only the "any" entry is read, whatever the query
	last  SparseVector
	lastK int
}

func (f *fakeSparseScorer) Search(ctx context.Context, query SparseVector, k int) ([]ScoredDoc, error) {
	f.last = query
	f.lastK = k
	results := f.docs["any"]
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}
func (f *fakeSparseScorer) Documents(ctx context.Context) ([]Document, error)        { return nil, nil }
func (f *fakeSparseScorer) DocumentIndex(ctx context.Context) (map[int]string, error) { return nil, nil }
func (f *fakeSparseScorer) Close() error                                              { return nil }

type fakeDenseIndex struct {
	docs []ScoredDoc
}

func (f *fakeDenseIndex) Search(ctx context.Context, query DenseVector, k int) ([]ScoredDoc, error) {
	results := f.docs
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}
func (f *fakeDenseIndex) Close() error { return nil }

type fakeSparseEncoder struct {
	vec SparseVector
	err error
}

func (f *fakeSparseEncoder) EncodeQuery(ctx context.Context, text string) (SparseVector, error) {
	return f.vec, f.err
}
func (f *fakeSparseEncoder) Close() error { return nil }

type fakeEmbedder struct {
	vec DenseVector
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) (DenseVector, error) {
	return f.vec, nil
}
func (f *fakeEmbedder) Dimension() int    { return len(f.vec) }
func (f *fakeEmbedder) ModelName() string { return "fake" }

type fakeExtractor struct {
	results [][]ExtractionResult
}

func (f *fakeExtractor) Extract(ctx context.Context, documentIDs []string) ([][]ExtractionResult, error) {
	return f.results, nil
}

func TestService_SparseSearch_RejectsEmptyQuery(t *testing.T) {
	svc := New(&fakeSparseScorer{}, &fakeDenseIndex{}, &fakeSparseEncoder{}, &fakeEmbedder{}, &fakeExtractor{})

	_, err := svc.SparseSearch(context.Background(), "", 10)
	require.ErrorIs(t, err, apperr.ErrBadRequest)
}

func TestService_SparseSearch_PropagatesTextTooLong(t *testing.T) {
	svc := New(&fakeSparseScorer{}, &fakeDenseIndex{}, &fakeSparseEncoder{err: apperr.ErrTextTooLong}, &fakeEmbedder{}, &fakeExtractor{})

	_, err := svc.SparseSearch(context.Background(), "long query", 10)
	require.ErrorIs(t, err, apperr.ErrTextTooLong)
}

func TestService_DenseSearch_AllowsAnyLengthQuery(t *testing.T) {
	dense := &fakeDenseIndex{docs: []ScoredDoc{{DocumentID: "a", Score: 1.0}}}
	// The sparse encoder rejects every query as too long; dense search must
	// not consult it.
	svc := New(&fakeSparseScorer{}, dense, &fakeSparseEncoder{err: apperr.ErrTextTooLong}, &fakeEmbedder{vec: DenseVector{1, 2, 3}}, &fakeExtractor{})

	results, err := svc.DenseSearch(context.Background(), "anything", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestService_HybridSearch_UsesFusionKFloorOfFifty(t *testing.T) {
	sparse := &fakeSparseScorer{docs: map[string][]ScoredDoc{"any": {{DocumentID: "a", Score: 1.0}}}}
	dense := &fakeDenseIndex{docs: []ScoredDoc{{DocumentID: "a", Score: 1.0}}}
	svc := New(sparse, dense, &fakeSparseEncoder{}, &fakeEmbedder{vec: DenseVector{1}}, &fakeExtractor{})

	// k=2 -> k*4=8, below the 50 floor, so the sparse sub-search is asked
	// for 50 candidates; the fused result is still cut back to k.
	results, err := svc.HybridSearch(context.Background(), "query", 2)
	require.NoError(t, err)
	require.Equal(t, 50, sparse.lastK)
	require.Len(t, results, 1)
	require.Equal(t, "a", results[0].DocumentID)
}

func TestService_HybridSearch_RejectsEmptyQuery(t *testing.T) {
	svc := New(&fakeSparseScorer{}, &fakeDenseIndex{}, &fakeSparseEncoder{}, &fakeEmbedder{}, &fakeExtractor{})

	_, err := svc.HybridSearch(context.Background(), "   ", 10)
	require.Error(t, err)
}

func TestService_Extract_RejectsEmptyBatch(t *testing.T) {
	svc := New(&fakeSparseScorer{}, &fakeDenseIndex{}, &fakeSparseEncoder{}, &fakeEmbedder{}, &fakeExtractor{})

	_, err := svc.Extract(context.Background(), nil)
	require.ErrorIs(t, err, apperr.ErrBadRequest)
}

func TestService_Extract_DelegatesToClient(t *testing.T) {
	expected := [][]ExtractionResult{{{Task: "classification", Metric: "accuracy"}}}
	svc := New(&fakeSparseScorer{}, &fakeDenseIndex{}, &fakeSparseEncoder{}, &fakeEmbedder{}, &fakeExtractor{results: expected})

	results, err := svc.Extract(context.Background(), []string{"doc1"})
	require.NoError(t, err)
	require.Equal(t, expected, results)
}

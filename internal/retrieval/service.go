package retrieval

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/knoguchi/paperfind/internal/apperr"
	"github.com/knoguchi/paperfind/internal/denseindex"
	"github.com/knoguchi/paperfind/internal/embedder"
	"github.com/knoguchi/paperfind/internal/encoder"
	"github.com/knoguchi/paperfind/internal/extraction"
	"github.com/knoguchi/paperfind/internal/fusion"
	"github.com/knoguchi/paperfind/internal/sparseindex"
)

// minHybridFusionK is the floor on how many candidates each of the sparse
// and dense paths contribute to a hybrid search, regardless of how small
// the caller's requested k is — fusing two 1-candidate lists would rarely
// surface the best overall document.
const minHybridFusionK = 50

// hybridOverfetchFactor scales the caller's k into how many candidates each
// sub-search fetches before fusion narrows back down to k.
const hybridOverfetchFactor = 4

// Service orchestrates the sparse, dense, fusion, and extraction components
// into the operations the HTTP layer exposes.
type Service struct {
	sparse    sparseindex.Scorer
	dense     denseindex.Index
	sparseEnc encoder.SparseEncoder
	denseEnc  embedder.Embedder
	extractor extraction.Client
}

// New builds a Service from its already-loaded components.
func New(sparse sparseindex.Scorer, dense denseindex.Index, sparseEnc encoder.SparseEncoder, denseEnc embedder.Embedder, extractor extraction.Client) *Service {
	return &Service{sparse: sparse, dense: dense, sparseEnc: sparseEnc, denseEnc: denseEnc, extractor: extractor}
}

// SparseSearch encodes query into a sparse vector and scores it against the
// inverted index.
func (s *Service) SparseSearch(ctx context.Context, query string, k int) ([]ScoredDoc, error) {
	if err := validateQuery(query); err != nil {
		return nil, err
	}
	vec, err := s.sparseEnc.EncodeQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.sparse.Search(ctx, vec, k)
}

// DenseSearch embeds query and searches the ANN index. Unlike sparse and
// hybrid search, dense search has no token-count ceiling: the embedding
// vendor truncates long input rather than rejecting it.
func (s *Service) DenseSearch(ctx context.Context, query string, k int) ([]ScoredDoc, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query must not be empty", apperr.ErrBadRequest)
	}
	vec, err := s.denseEnc.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.dense.Search(ctx, vec, k)
}

// HybridSearch runs sparse and dense search in parallel, each over-fetching
// max(k*4, 50) candidates, then fuses the two ranked lists with RRF down to
// the caller's k.
func (s *Service) HybridSearch(ctx context.Context, query string, k int) ([]ScoredDoc, error) {
	if err := validateQuery(query); err != nil {
		return nil, err
	}

	fusionK := k * hybridOverfetchFactor
	if fusionK < minHybridFusionK {
		fusionK = minHybridFusionK
	}

	var sparseResults, denseResults []ScoredDoc

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		vec, err := s.sparseEnc.EncodeQuery(gctx, query)
		if err != nil {
			return err
		}
		results, err := s.sparse.Search(gctx, vec, fusionK)
		if err != nil {
			return err
		}
		sparseResults = results
		return nil
	})
	group.Go(func() error {
		vec, err := s.denseEnc.Embed(gctx, query)
		if err != nil {
			return err
		}
		results, err := s.dense.Search(gctx, vec, fusionK)
		if err != nil {
			return err
		}
		denseResults = results
		return nil
	})

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return fusion.RRF(denseResults, sparseResults, k), nil
}

// Extract runs structured extraction over a batch of document ids,
// returning one benchmark-row slice (or nil) per input id, in order.
func (s *Service) Extract(ctx context.Context, documentIDs []string) ([][]ExtractionResult, error) {
	if len(documentIDs) == 0 {
		return nil, fmt.Errorf("%w: document_ids must not be empty", apperr.ErrBadRequest)
	}
	return s.extractor.Extract(ctx, documentIDs)
}

func validateQuery(query string) error {
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("%w: query must not be empty", apperr.ErrBadRequest)
	}
	return nil
}

// Package loader performs the one-shot asynchronous resource download and
// index load that must finish before the server can answer search
// requests.
package loader

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	tiktoken "github.com/tiktoken-go/tokenizer"

	"github.com/knoguchi/paperfind/internal/config"
	"github.com/knoguchi/paperfind/internal/denseindex"
	"github.com/knoguchi/paperfind/internal/embedder"
	"github.com/knoguchi/paperfind/internal/encoder"
	"github.com/knoguchi/paperfind/internal/objectstore"
	"github.com/knoguchi/paperfind/internal/sparseindex"
)

// Resources holds every component the server needs once loading completes.
type Resources struct {
	SparseScorer sparseindex.Scorer
	DenseIndex   denseindex.Index
	Encoder      encoder.SparseEncoder
	Embedder     embedder.Embedder
}

// Loader downloads the sparse index, dense index, and encoder model from
// object storage, then opens/loads each one and cross-checks embedding
// dimensions. There is no retry: a failure here means the deployment is
// broken and the process should not pretend to be healthy.
type Loader struct {
	store  objectstore.Store
	cfg    *config.Config
	logger *slog.Logger
}

// New builds a Loader.
func New(store objectstore.Store, cfg *config.Config, logger *slog.Logger) *Loader {
	return &Loader{store: store, cfg: cfg, logger: logger}
}

// Run downloads and loads every resource. It blocks until loading finishes
// and does not itself signal readiness: the caller must finish wiring the
// returned resources into a servable state before flipping its readiness
// gate, or a request could slip through between the gate opening and the
// service being reachable. On any failure Run logs the error and terminates
// the process immediately, matching the original service's fail-fast
// startup: there is no partially-ready state to serve traffic from.
func (l *Loader) Run(ctx context.Context) *Resources {
	resources, err := l.load(ctx)
	if err != nil {
		l.logger.Error("resource loading failed, exiting", "error", err)
		os.Exit(1)
		return nil
	}

	l.logger.Info("resources loaded")
	return resources
}

func (l *Loader) load(ctx context.Context) (*Resources, error) {
	l.logger.Info("downloading sparse index", "key", l.cfg.SparseIndexKey)
	if err := l.store.DownloadToFile(ctx, l.cfg.SparseIndexKey, l.cfg.SparseIndexPath); err != nil {
		return nil, fmt.Errorf("download sparse index: %w", err)
	}
	sparseScorer, err := sparseindex.OpenSQLiteScorer(l.cfg.SparseIndexPath)
	if err != nil {
		return nil, fmt.Errorf("open sparse index: %w", err)
	}

	l.logger.Info("downloading encoder model", "key", l.cfg.EncoderModelDir)
	if err := downloadPrefix(ctx, l.store, l.cfg.EncoderModelDir, l.cfg.EncoderModelDst); err != nil {
		return nil, fmt.Errorf("download encoder model: %w", err)
	}
	tokenizerCodec, err := tiktoken.Get(tiktoken.Cl100kBase)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer codec: %w", err)
	}
	sparseEncoder, err := encoder.NewSpladeEncoder(
		l.cfg.EncoderModelDst,
		encoder.NewTiktokenTokenizer(tokenizerCodec),
		encoderVocabSize,
		l.cfg.MaxQueryTerm,
	)
	if err != nil {
		return nil, fmt.Errorf("load encoder: %w", err)
	}

	l.logger.Info("downloading dense index", "key", l.cfg.DenseIndexKey)
	if err := l.store.DownloadToFile(ctx, l.cfg.DenseIndexKey, l.cfg.DenseIndexPath); err != nil {
		return nil, fmt.Errorf("download dense index: %w", err)
	}
	documentIndex, err := sparseScorer.DocumentIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("load document index: %w", err)
	}
	denseIdx, err := denseindex.LoadHNSWIndex(l.cfg.DenseIndexPath, documentIndex)
	if err != nil {
		return nil, fmt.Errorf("load dense index: %w", err)
	}

	dense := embedder.NewHTTPClient(embedder.Config{
		BaseURL:   l.cfg.EmbeddingBaseURL,
		APIKey:    l.cfg.EmbeddingAPIKey,
		Model:     l.cfg.EmbeddingModel,
		Dimension: l.cfg.EmbeddingDimension,
	})
	cachedDense := embedder.NewCachedEmbedder(dense, l.cfg.EmbeddingCacheSize)
	if err := embedder.CheckDimension(ctx, cachedDense, l.cfg.EmbeddingDimension); err != nil {
		return nil, fmt.Errorf("verify embedding dimension: %w", err)
	}

	return &Resources{
		SparseScorer: sparseScorer,
		DenseIndex:   denseIdx,
		Encoder:      sparseEncoder,
		Embedder:     cachedDense,
	}, nil
}

// downloadPrefix pulls every object under prefix into dst, used for the
// multi-file encoder model directory (weights + config).
func downloadPrefix(ctx context.Context, store objectstore.Store, prefix, dst string) error {
	keys, err := store.ListKeys(ctx, prefix)
	if err != nil {
		return fmt.Errorf("list keys under %s: %w", prefix, err)
	}
	for _, key := range keys {
		relative := key[len(prefix):]
		if err := store.DownloadToFile(ctx, key, dst+"/"+relative); err != nil {
			return fmt.Errorf("download %s: %w", key, err)
		}
	}
	return nil
}

// encoderVocabSize is the SPLADE encoder's output vocabulary dimension,
// fixed by the exported ONNX model's logits shape.
const encoderVocabSize = 30522

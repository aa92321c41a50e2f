package encoder

import (
	"context"
	"fmt"
	"path/filepath"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/knoguchi/paperfind/internal/apperr"
	"github.com/knoguchi/paperfind/internal/retrieval"
)

// DefaultMaxSequenceLength is the sequence cap used when a caller doesn't
// supply one. 512 is this encoder's own limit; an encoder targeting a
// different model should pass its true max length rather than rely on this
// default.
const DefaultMaxSequenceLength = 512

// SpladeEncoder runs a masked-LM ONNX model to produce SPLADE-style sparse
// vectors: tokenize, forward-pass, log(1+relu(x)) per position, mask, then
// max-reduce across positions.
type SpladeEncoder struct {
	tokenizer Tokenizer
	session   *ort.DynamicAdvancedSession
	vocabSize int

	// maxSeqLen is the hard cap on tokenized query length; anything longer
	// is rejected rather than silently truncated, since truncation would
	// change which terms a query matches on.
	maxSeqLen int
}

// Tokenizer is the subset of a BPE tokenizer's surface the encoder needs.
// Kept narrow so the ONNX-backed encoder can be tested against a fake
// tokenizer without pulling in the real one.
type Tokenizer interface {
	Encode(text string) (ids []uint, err error)
}

// NewSpladeEncoder loads the ONNX model (model.onnx) from modelDir (the
// directory the resource loader downloaded the encoder's artifacts into),
// pairs it with the given tokenizer, and builds a session with a fixed
// vocabulary size for the transform's output space. maxSeqLen <= 0 falls back to
// DefaultMaxSequenceLength.
func NewSpladeEncoder(modelDir string, tokenizer Tokenizer, vocabSize, maxSeqLen int) (*SpladeEncoder, error) {
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("encoder: initialize onnxruntime: %w", err)
		}
	}
	if maxSeqLen <= 0 {
		maxSeqLen = DefaultMaxSequenceLength
	}

	modelPath := filepath.Join(modelDir, "model.onnx")
	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		[]string{"input_ids", "attention_mask"},
		[]string{"logits"},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: load encoder model %s: %v", apperr.ErrIndexCorruption, modelPath, err)
	}

	return &SpladeEncoder{tokenizer: tokenizer, session: session, vocabSize: vocabSize, maxSeqLen: maxSeqLen}, nil
}

// EncodeQuery tokenizes text, rejects anything over the sequence cap,
// runs the forward pass, and reduces the resulting logits to a sparse
// vector.
func (e *SpladeEncoder) EncodeQuery(ctx context.Context, text string) (retrieval.SparseVector, error) {
	ids, err := e.tokenizer.Encode(text)
	if err != nil {
		return nil, fmt.Errorf("encoder: tokenize: %w", err)
	}
	if len(ids) > e.maxSeqLen {
		return nil, fmt.Errorf("%w: query tokenizes to %d terms, limit is %d", apperr.ErrTextTooLong, len(ids), e.maxSeqLen)
	}
	if len(ids) == 0 {
		return retrieval.SparseVector{}, nil
	}

	seqLen := len(ids)
	inputIDs := make([]int64, seqLen)
	attentionMask := make([]int64, seqLen)
	for i, id := range ids {
		inputIDs[i] = int64(id)
		attentionMask[i] = 1
	}

	shape := ort.NewShape(1, int64(seqLen))
	inputIDsTensor, err := ort.NewTensor(shape, inputIDs)
	if err != nil {
		return nil, fmt.Errorf("encoder: build input_ids tensor: %w", err)
	}
	defer inputIDsTensor.Destroy()

	attentionMaskTensor, err := ort.NewTensor(shape, attentionMask)
	if err != nil {
		return nil, fmt.Errorf("encoder: build attention_mask tensor: %w", err)
	}
	defer attentionMaskTensor.Destroy()

	logitsShape := ort.NewShape(1, int64(seqLen), int64(e.vocabSize))
	logitsTensor, err := ort.NewEmptyTensor[float32](logitsShape)
	if err != nil {
		return nil, fmt.Errorf("encoder: allocate logits tensor: %w", err)
	}
	defer logitsTensor.Destroy()

	if err := e.session.Run(
		[]ort.Value{inputIDsTensor, attentionMaskTensor},
		[]ort.Value{logitsTensor},
	); err != nil {
		return nil, fmt.Errorf("%w: encoder forward pass: %v", apperr.ErrUpstreamUnavailable, err)
	}

	flat := logitsTensor.GetData()
	logits := make([][]float32, seqLen)
	for pos := 0; pos < seqLen; pos++ {
		start := pos * e.vocabSize
		logits[pos] = flat[start : start+e.vocabSize]
	}

	return spladeTransform(logits, attentionMask), nil
}

// Close releases the ONNX session.
func (e *SpladeEncoder) Close() error {
	if e.session != nil {
		e.session.Destroy()
	}
	return nil
}

var _ SparseEncoder = (*SpladeEncoder)(nil)

package encoder

import (
	"context"
	"errors"
	"testing"

	"github.com/knoguchi/paperfind/internal/apperr"
	"github.com/stretchr/testify/require"
)

type fakeTokenizer struct {
	ids []uint
	err error
}

func (f *fakeTokenizer) Encode(text string) ([]uint, error) {
	return f.ids, f.err
}

func TestSpladeEncoder_RejectsOverlongQuery(t *testing.T) {
	ids := make([]uint, DefaultMaxSequenceLength+1)
	enc := &SpladeEncoder{tokenizer: &fakeTokenizer{ids: ids}, vocabSize: 100, maxSeqLen: DefaultMaxSequenceLength}

	_, err := enc.EncodeQuery(context.Background(), "a very long query")
	require.ErrorIs(t, err, apperr.ErrTextTooLong)
}

func TestSpladeEncoder_EmptyTokenizationReturnsEmptyVector(t *testing.T) {
	enc := &SpladeEncoder{tokenizer: &fakeTokenizer{ids: nil}, vocabSize: 100, maxSeqLen: DefaultMaxSequenceLength}

	vec, err := enc.EncodeQuery(context.Background(), "")
	require.NoError(t, err)
	require.Empty(t, vec)
}

func TestSpladeEncoder_PropagatesTokenizerError(t *testing.T) {
	boom := errors.New("boom")
	enc := &SpladeEncoder{tokenizer: &fakeTokenizer{err: boom}, vocabSize: 100, maxSeqLen: DefaultMaxSequenceLength}

	_, err := enc.EncodeQuery(context.Background(), "hello")
	require.Error(t, err)
}

func TestSpladeEncoder_RejectsUsingConfiguredLimitNotDefault(t *testing.T) {
	ids := make([]uint, 11)
	enc := &SpladeEncoder{tokenizer: &fakeTokenizer{ids: ids}, vocabSize: 100, maxSeqLen: 10}

	_, err := enc.EncodeQuery(context.Background(), "a query with eleven tokens")
	require.ErrorIs(t, err, apperr.ErrTextTooLong)
}

package encoder

import (
	"fmt"

	tiktoken "github.com/tiktoken-go/tokenizer"
)

// TiktokenTokenizer adapts github.com/tiktoken-go/tokenizer's BPE codec to
// the narrow Tokenizer interface the encoder needs. The encoder's model
// vocabulary was exported with this codec, so token ids line up with the
// model's embedding table positions.
type TiktokenTokenizer struct {
	codec tiktoken.Codec
}

// NewTiktokenTokenizer wraps an already-loaded BPE codec (e.g. the result of
// tiktoken.Get(tiktoken.Cl100kBase)).
func NewTiktokenTokenizer(codec tiktoken.Codec) *TiktokenTokenizer {
	return &TiktokenTokenizer{codec: codec}
}

// Encode tokenizes text into vocabulary ids, dropping the token strings the
// codec also returns since the encoder only needs ids for the model input.
func (t *TiktokenTokenizer) Encode(text string) ([]uint, error) {
	ids, _, err := t.codec.Encode(text)
	if err != nil {
		return nil, fmt.Errorf("tokenizer: encode: %w", err)
	}
	return ids, nil
}

var _ Tokenizer = (*TiktokenTokenizer)(nil)

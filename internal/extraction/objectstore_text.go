package extraction

import (
	"context"
	"fmt"

	"github.com/knoguchi/paperfind/internal/objectstore"
)

// correctedMarkdownSuffix is the only per-document artifact the serve-time
// core consumes; it lives at the bucket root keyed directly by doc_id, with
// no prefix (the bucket also holds <doc_id>.pdf, <doc_id>.mmd,
// <doc_id>-keywords.json, and <doc_id>-vectors.json, none of which serving
// reads).
const correctedMarkdownSuffix = "-corrected.mmd"

// ObjectStoreTextSource fetches a document's cleaned, LLM-corrected
// markdown from object storage.
type ObjectStoreTextSource struct {
	store objectstore.Store
}

// NewObjectStoreTextSource builds a TextSource over store.
func NewObjectStoreTextSource(store objectstore.Store) *ObjectStoreTextSource {
	return &ObjectStoreTextSource{store: store}
}

// DocumentText fetches and returns the document's cleaned text.
func (s *ObjectStoreTextSource) DocumentText(ctx context.Context, documentID string) (string, error) {
	data, err := s.store.GetObject(ctx, documentID+correctedMarkdownSuffix)
	if err != nil {
		return "", fmt.Errorf("objectstore text source: %w", err)
	}
	return string(data), nil
}

var _ TextSource = (*ObjectStoreTextSource)(nil)

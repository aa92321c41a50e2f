package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/knoguchi/paperfind/internal/apperr"
	"github.com/knoguchi/paperfind/internal/retrieval"
)

// SearchHandlers implements the four JSON POST endpoints the retrieval
// service exposes. The service reference is set once resource loading
// completes; it is stored atomically because the HTTP server starts
// accepting connections (to serve /healthz and /readyz) before loading
// finishes, while the readiness gate still blocks every route below from
// reaching a nil service.
type SearchHandlers struct {
	service  atomic.Pointer[retrieval.Service]
	logger   *slog.Logger
	defaultK int
}

// NewSearchHandlers builds a SearchHandlers with no service set yet.
// defaultK <= 0 falls back to DefaultK.
func NewSearchHandlers(logger *slog.Logger, defaultK int) *SearchHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	if defaultK <= 0 {
		defaultK = DefaultK
	}
	return &SearchHandlers{logger: logger, defaultK: defaultK}
}

// SetService installs the service once resource loading completes.
func (h *SearchHandlers) SetService(service *retrieval.Service) {
	h.service.Store(service)
}

type searchRequest struct {
	Query   string `json:"query"`
	K       int    `json:"k"`
	Extract bool   `json:"extract"`
}

type searchResultItem struct {
	DocumentID    string                       `json:"document_id"`
	Score         float64                      `json:"score"`
	ExtractedData []retrieval.ExtractionResult `json:"extracted_data,omitempty"`
}

type searchResponse struct {
	Results []searchResultItem `json:"results"`
}

type extractRequest struct {
	DocumentIDs []string `json:"document_ids"`
}

type extractResponse struct {
	Results [][]retrieval.ExtractionResult `json:"results"`
}

// DefaultK is the top-k used when a search request doesn't specify one.
const DefaultK = 20

// MinK and MaxK bound the k a caller may request; anything outside this
// range is rejected with 400 rather than silently clamped.
const (
	MinK = 1
	MaxK = 1000
)

// SparseSearch handles POST /search/sparse.
func (h *SearchHandlers) SparseSearch(w http.ResponseWriter, r *http.Request) {
	h.search(w, r, func(ctx context.Context, svc *retrieval.Service, query string, k int) ([]retrieval.ScoredDoc, error) {
		return svc.SparseSearch(ctx, query, k)
	})
}

// DenseSearch handles POST /search/dense.
func (h *SearchHandlers) DenseSearch(w http.ResponseWriter, r *http.Request) {
	h.search(w, r, func(ctx context.Context, svc *retrieval.Service, query string, k int) ([]retrieval.ScoredDoc, error) {
		return svc.DenseSearch(ctx, query, k)
	})
}

// HybridSearch handles POST /search/hybrid.
func (h *SearchHandlers) HybridSearch(w http.ResponseWriter, r *http.Request) {
	h.search(w, r, func(ctx context.Context, svc *retrieval.Service, query string, k int) ([]retrieval.ScoredDoc, error) {
		return svc.HybridSearch(ctx, query, k)
	})
}

// search runs pipeline against the decoded request, optionally running
// extraction over the resulting top-k document ids when the caller opted
// in. Extraction failures are logged and swallowed rather than failing the
// search: a caller asking for ranked results should still get them even
// if the LLM extraction pass can't complete.
func (h *SearchHandlers) search(w http.ResponseWriter, r *http.Request, pipeline func(context.Context, *retrieval.Service, string, int) ([]retrieval.ScoredDoc, error)) {
	req, ok := h.decodeSearchRequest(w, r)
	if !ok {
		return
	}
	svc := h.service.Load()

	docs, err := pipeline(r.Context(), svc, req.Query, req.K)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	items := make([]searchResultItem, len(docs))
	for i, d := range docs {
		items[i] = searchResultItem{DocumentID: d.DocumentID, Score: d.Score}
	}

	if req.Extract && len(docs) > 0 {
		ids := make([]string, len(docs))
		for i, d := range docs {
			ids[i] = d.DocumentID
		}
		extracted, err := svc.Extract(r.Context(), ids)
		if err != nil {
			h.logger.Warn("extraction pass over search results failed, returning results without it",
				"error", err, "document_count", len(ids))
		} else {
			for i := range items {
				items[i].ExtractedData = extracted[i]
			}
		}
	}

	writeJSON(w, http.StatusOK, searchResponse{Results: items})
}

// Extract handles POST /extract.
func (h *SearchHandlers) Extract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	results, err := h.service.Load().Extract(r.Context(), req.DocumentIDs)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, extractResponse{Results: results})
}

func (h *SearchHandlers) decodeSearchRequest(w http.ResponseWriter, r *http.Request) (searchRequest, bool) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return searchRequest{}, false
	}
	if req.K == 0 {
		req.K = h.defaultK
	}
	if req.K < MinK || req.K > MaxK {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("k must be between %d and %d", MinK, MaxK))
		return searchRequest{}, false
	}
	return req, true
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrBadRequest), errors.Is(err, apperr.ErrTextTooLong):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperr.ErrNotReady):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, apperr.ErrIndexCorruption):
		writeError(w, http.StatusInternalServerError, err.Error())
	case errors.Is(err, apperr.ErrUpstreamUnavailable):
		writeError(w, http.StatusInternalServerError, "internal error")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/knoguchi/paperfind/internal/apperr"
	"github.com/knoguchi/paperfind/internal/retrieval"
)

// HTTPClient calls an OpenAI-compatible embeddings endpoint
// (POST {baseURL}/embeddings) to produce dense query vectors.
type HTTPClient struct {
	baseURL   string
	apiKey    string
	model     string
	dimension int
	client    *http.Client
}

// Config configures an HTTPClient.
type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	Dimension  int
	HTTPClient *http.Client
}

// NewHTTPClient creates a new embedding client for the given vendor config.
func NewHTTPClient(cfg Config) *HTTPClient {
	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	return &HTTPClient{
		baseURL:   cfg.BaseURL,
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		dimension: cfg.Dimension,
		client:    client,
	}
}

type embeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed sends text to the vendor's embeddings endpoint and returns the
// resulting vector.
func (c *HTTPClient) Embed(ctx context.Context, text string) (retrieval.DenseVector, error) {
	body, err := json.Marshal(embeddingRequest{Model: c.model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("embedder: marshal request: %w", err)
	}

	url := c.baseURL + "/embeddings"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("embedder: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding request: %v", apperr.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: embedding vendor returned %d: %s", apperr.ErrUpstreamUnavailable, resp.StatusCode, string(respBody))
	}

	var parsed embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode embedding response: %v", apperr.ErrUpstreamUnavailable, err)
	}
	if len(parsed.Data) == 0 || len(parsed.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("%w: embedding vendor returned no data", apperr.ErrUpstreamUnavailable)
	}

	return retrieval.DenseVector(parsed.Data[0].Embedding), nil
}

// Dimension returns the configured embedding dimension.
func (c *HTTPClient) Dimension() int {
	return c.dimension
}

// ModelName returns the model identifier in use.
func (c *HTTPClient) ModelName() string {
	return c.model
}

var _ Embedder = (*HTTPClient)(nil)

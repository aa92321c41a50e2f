package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/knoguchi/paperfind/internal/apperr"
	"github.com/knoguchi/paperfind/internal/llm"
	"github.com/knoguchi/paperfind/internal/retrieval"
)

// maxDocumentChars caps how much document text goes into a single prompt,
// avoiding context-window blowups on long papers.
const maxDocumentChars = 12000

// LLMClient extracts structured benchmark rows by prompting a chat LLM per
// document, bounded to concurrency documents in flight at
// once and tolerant of individual document failures.
type LLMClient struct {
	llm         llm.LLM
	texts       TextSource
	model       string
	concurrency int
	timeout     time.Duration
	logger      *slog.Logger
}

// Option configures an LLMClient.
type Option func(*LLMClient)

// WithLogger sets the client's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *LLMClient) { c.logger = logger }
}

// NewLLMClient builds an extraction client. concurrency bounds how many
// documents are extracted in parallel; timeout bounds each document's text
// fetch and LLM call together.
func NewLLMClient(chatClient llm.LLM, texts TextSource, model string, concurrency int, timeout time.Duration, opts ...Option) *LLMClient {
	if concurrency <= 0 {
		concurrency = 1
	}
	c := &LLMClient{
		llm:         chatClient,
		texts:       texts,
		model:       model,
		concurrency: concurrency,
		timeout:     timeout,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Extract fetches text and runs structured extraction for each document id,
// preserving input order. A document whose text can't be fetched, whose
// LLM output can't be parsed, or whose LLM output lists no benchmark rows
// yields a nil slot; it never aborts the batch.
func (c *LLMClient) Extract(ctx context.Context, documentIDs []string) ([][]retrieval.ExtractionResult, error) {
	results := make([][]retrieval.ExtractionResult, len(documentIDs))

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(c.concurrency)

	for i, docID := range documentIDs {
		i, docID := i, docID
		group.Go(func() error {
			result, err := c.extractOne(gctx, docID)
			if err != nil {
				c.logger.Warn("extraction failed for document", "document_id", docID, "error", fmt.Errorf("%w: %v", apperr.ErrExtractionFailed, err))
				return nil
			}
			results[i] = result
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("extraction: batch aborted: %w", err)
	}

	return results, nil
}

func (c *LLMClient) extractOne(ctx context.Context, documentID string) ([]retrieval.ExtractionResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	text, err := c.texts.DocumentText(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("fetch document text: %w", err)
	}
	if len(text) > maxDocumentChars {
		text = text[:maxDocumentChars]
	}

	prompt := buildExtractionPrompt(text)
	response, err := c.llm.Generate(ctx, prompt, llm.GenerateOptions{
		Model:       c.model,
		Temperature: 0.0,
		MaxTokens:   1024,
	})
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	rows, err := parseExtractionResponse(response)
	if err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows, nil
}

// buildExtractionPrompt anchors the LLM's output to the declared
// ExtractionResult schema: task and metric are mandatory, every other
// field is reported only when the paper states it.
func buildExtractionPrompt(documentText string) string {
	var sb strings.Builder
	sb.WriteString("You are a research paper analysis system. Read the paper text below and extract every reported\n")
	sb.WriteString("benchmark result as one row per (task, metric) pair. Only include a field when the paper states it;\n")
	sb.WriteString("omit fields that aren't reported rather than guessing.\n\n")
	sb.WriteString("Paper text:\n")
	sb.WriteString(documentText)
	sb.WriteString("\n\n")
	sb.WriteString(`Output ONLY valid JSON in this exact format, no explanation:
{"results": [{
  "task": "image classification",
  "model_name": "ResNet-50",
  "model_architecture": "CNN",
  "parameter_count": 25600000,
  "metric": "top-1 accuracy",
  "metric_higher_is_better": true,
  "value": 0.82,
  "value_error": 0.01,
  "dataset": "ImageNet",
  "dataset_version": "ILSVRC2012",
  "dataset_split": "validation",
  "inference_time": 12.3,
  "inference_time_unit": "ms",
  "inference_device_class": "V100 GPU"
}]}
"task" and "metric" are required on every row; every other field may be omitted.`)
	return sb.String()
}

type extractionPayload struct {
	Results []retrieval.ExtractionResult `json:"results"`
}

// parseExtractionResponse extracts the JSON payload from an LLM response,
// stripping a markdown code fence if the model wrapped its output in one.
func parseExtractionResponse(response string) ([]retrieval.ExtractionResult, error) {
	response = strings.TrimSpace(response)

	if idx := strings.Index(response, "```json"); idx != -1 {
		start := idx + len("```json")
		if end := strings.Index(response[start:], "```"); end != -1 {
			response = response[start : start+end]
		}
	} else if idx := strings.Index(response, "```"); idx != -1 {
		start := idx + 3
		if end := strings.Index(response[start:], "```"); end != -1 {
			response = response[start : start+end]
		}
	}
	response = strings.TrimSpace(response)

	var payload extractionPayload
	if err := json.Unmarshal([]byte(response), &payload); err != nil {
		return nil, fmt.Errorf("unmarshal extraction payload: %w", err)
	}

	return payload.Results, nil
}

var _ Client = (*LLMClient)(nil)

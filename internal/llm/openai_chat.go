package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/knoguchi/paperfind/internal/apperr"
)

const (
	// DefaultChatBaseURL is the default OpenAI-compatible chat completions
	// endpoint.
	DefaultChatBaseURL = "https://api.openai.com/v1"

	// DefaultChatModel is used when a call doesn't set GenerateOptions.Model.
	DefaultChatModel = "gpt-4.1-nano"
)

// OpenAIChatClient implements LLM against an OpenAI-chat-completions-shaped
// API, the wire format the extraction vendor speaks. It keeps the
// teacher's OllamaClient's functional-option construction and
// context-aware request building, retargeted from Ollama's NDJSON
// `/api/generate` stream to SSE `data: ` chat-completion chunks.
type OpenAIChatClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	model      string
}

// OpenAIChatOption configures an OpenAIChatClient.
type OpenAIChatOption func(*OpenAIChatClient)

// WithChatBaseURL sets a custom base URL.
func WithChatBaseURL(url string) OpenAIChatOption {
	return func(c *OpenAIChatClient) { c.baseURL = strings.TrimSuffix(url, "/") }
}

// WithChatAPIKey sets the bearer token sent with every request.
func WithChatAPIKey(key string) OpenAIChatOption {
	return func(c *OpenAIChatClient) { c.apiKey = key }
}

// WithChatModel sets the default model for the client.
func WithChatModel(model string) OpenAIChatOption {
	return func(c *OpenAIChatClient) { c.model = model }
}

// WithChatHTTPClient sets a custom HTTP client.
func WithChatHTTPClient(client *http.Client) OpenAIChatOption {
	return func(c *OpenAIChatClient) { c.httpClient = client }
}

// NewOpenAIChatClient builds an OpenAIChatClient with the given options.
func NewOpenAIChatClient(opts ...OpenAIChatOption) *OpenAIChatClient {
	c := &OpenAIChatClient{
		baseURL:    DefaultChatBaseURL,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		model:      DefaultChatModel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type chatStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

// Generate sends a single-turn chat completion request and returns the
// first choice's message content.
func (c *OpenAIChatClient) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	req, err := c.buildRequest(ctx, prompt, opts, false)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: chat completion request: %v", apperr.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: chat completion status %d: %s", apperr.ErrUpstreamUnavailable, resp.StatusCode, string(body))
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%w: decoding response: %v", apperr.ErrUpstreamUnavailable, err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("%w: chat response had no choices", apperr.ErrUpstreamUnavailable)
	}

	return result.Choices[0].Message.Content, nil
}

// GenerateStream sends a prompt and streams response chunks as they arrive
// over SSE.
func (c *OpenAIChatClient) GenerateStream(ctx context.Context, prompt string, opts GenerateOptions) (<-chan StreamChunk, error) {
	req, err := c.buildRequest(ctx, prompt, opts, true)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: chat completion request: %v", apperr.ErrUpstreamUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("%w: chat completion status %d: %s", apperr.ErrUpstreamUnavailable, resp.StatusCode, string(body))
	}

	chunks := make(chan StreamChunk)

	go func() {
		defer close(chunks)
		defer resp.Body.Close()

		reader := bufio.NewReader(resp.Body)
		for {
			select {
			case <-ctx.Done():
				chunks <- StreamChunk{Error: ctx.Err(), Done: true}
				return
			default:
			}

			line, err := reader.ReadBytes('\n')
			if err != nil {
				if err == io.EOF {
					return
				}
				chunks <- StreamChunk{Error: fmt.Errorf("reading stream: %w", err), Done: true}
				return
			}

			line = bytes.TrimSpace(line)
			if len(line) == 0 || !bytes.HasPrefix(line, []byte("data: ")) {
				continue
			}
			payload := bytes.TrimPrefix(line, []byte("data: "))
			if string(payload) == "[DONE]" {
				chunks <- StreamChunk{Done: true}
				return
			}

			var streamResp chatStreamChunk
			if err := json.Unmarshal(payload, &streamResp); err != nil {
				chunks <- StreamChunk{Error: fmt.Errorf("parsing stream chunk: %w", err), Done: true}
				return
			}
			if len(streamResp.Choices) == 0 {
				continue
			}

			done := streamResp.Choices[0].FinishReason != nil
			select {
			case <-ctx.Done():
				chunks <- StreamChunk{Error: ctx.Err(), Done: true}
				return
			case chunks <- StreamChunk{Token: streamResp.Choices[0].Delta.Content, Done: done}:
			}
			if done {
				return
			}
		}
	}()

	return chunks, nil
}

func (c *OpenAIChatClient) buildRequest(ctx context.Context, prompt string, opts GenerateOptions, stream bool) (*http.Request, error) {
	model := opts.Model
	if model == "" {
		model = c.model
	}

	messages := []chatMessage{}
	if opts.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: opts.SystemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	reqBody := chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		Stream:      stream,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	return req, nil
}

// Ensure OpenAIChatClient implements LLM interface.
var _ LLM = (*OpenAIChatClient)(nil)

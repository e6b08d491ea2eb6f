// Package llm implements the LLM Service: an HTTP client to an
// Ollama-style chat/embeddings endpoint, plus the strict output
// grammar that turns generated text back into Terms.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/automenta/flowmind/pkg/cache"
)

// Service is the interface the rest of the engine (rule embedding
// generation, memory embedding generation, the LLM built-in tool)
// consumes. Satisfied by Client and, in tests, by a Mock.
type Service interface {
	Generate(ctx context.Context, prompt string, format string) (string, error)
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Config configures the HTTP transport to the LLM endpoint.
type Config struct {
	Model   string
	BaseURL string
	Timeout time.Duration
}

// DefaultConfig mirrors the reference agent's own sensible defaults
// for a local Ollama-compatible endpoint.
func DefaultConfig() Config {
	return Config{
		Model:   "llama3",
		BaseURL: "http://localhost:11434",
		Timeout: 30 * time.Second,
	}
}

// Client is the HTTP-backed Service implementation described in
// spec §6, grounded in the reference AnthropicLLMClient's request/
// response-struct-plus-makeRequest shape, adapted to the simpler
// Ollama generate/embeddings surface this engine actually needs.
type Client struct {
	cfg         Config
	httpClient  *http.Client
	embedCache  *cache.LRU[string, []float32]
}

// NewClient constructs an HTTP LLM client. Embeddings are memoized in
// a bounded LRU so that rule-store and memory-store callers embedding
// the same source text repeatedly (e.g. a rule re-embedded by Update
// with unchanged pattern/action text, or identical tool result content)
// don't each pay a round trip to the endpoint.
func NewClient(cfg Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		embedCache: cache.New[string, []float32](&cache.Config{MaxEntries: 2000, TTL: 30 * time.Minute}),
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Format string `json:"format,omitempty"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Generate sends prompt to the chat endpoint and returns the raw
// response text. format is "json" or "text", per spec §6.
func (c *Client) Generate(ctx context.Context, prompt string, format string) (string, error) {
	reqBody := generateRequest{Model: c.cfg.Model, Prompt: prompt, Format: format, Stream: false}
	var resp generateResponse
	if err := c.post(ctx, "/api/generate", reqBody, &resp); err != nil {
		return "", fmt.Errorf("llm generate failed: %w", err)
	}
	return resp.Response, nil
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed sends text to the embeddings endpoint and returns the vector,
// serving from the embedding cache when the same text was embedded
// recently.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := c.embedCache.Get(text); ok {
		return v, nil
	}
	reqBody := embedRequest{Model: c.cfg.Model, Prompt: text}
	var resp embedResponse
	if err := c.post(ctx, "/api/embeddings", reqBody, &resp); err != nil {
		return nil, fmt.Errorf("llm embed failed: %w", err)
	}
	c.embedCache.Set(text, resp.Embedding)
	return resp.Embedding, nil
}

func (c *Client) post(ctx context.Context, path string, reqBody, respBody interface{}) error {
	data, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, respBody); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

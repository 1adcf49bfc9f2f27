package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/soyeahso/brainquest/internal/version"
)

// OpenRouterConfig configures an OpenRouterClient.
type OpenRouterConfig struct {
	Endpoint string // full chat-completions URL
	APIKey   string
	Model    string // used when a request leaves Model empty
	Timeout  time.Duration
}

// OpenRouterClient is a direct HTTP client for OpenRouter and any other
// OpenAI-compatible chat-completions endpoint.
type OpenRouterClient struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
}

// NewOpenRouterClient creates a client. A nil httpClient gets one with cfg.Timeout.
func NewOpenRouterClient(cfg OpenRouterConfig, httpClient *http.Client) *OpenRouterClient {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 120 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &OpenRouterClient{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		client:   httpClient,
	}
}

// Name returns the provider name.
func (c *OpenRouterClient) Name() string { return "openrouter" }

// Model returns the default model ID.
func (c *OpenRouterClient) Model() string { return c.model }

// Complete sends a non-streaming chat-completions request.
func (c *OpenRouterClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()

	if req.Model == "" {
		req.Model = c.model
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", version.UserAgent())
	httpReq.Header.Set("X-Title", "BrainQuest")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ProviderError{
			Provider: c.Name(),
			Code:     resp.StatusCode,
			Message:  strings.TrimSpace(string(respBody)),
		}
	}

	out, err := decodeResponse(c.Name(), respBody)
	if err != nil {
		return nil, err
	}
	if out.Model == "" {
		out.Model = req.Model
	}
	out.Duration = time.Since(start)
	return out, nil
}

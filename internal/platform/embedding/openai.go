package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/replyhive/replyhive-backend/internal/pkg/httpx"
)

// OpenAIConfig holds the settings for an OpenAI-compatible embeddings API.
// Endpoint is the version root (e.g. "https://api.openai.com/v1"); the
// client appends "/embeddings".
type OpenAIConfig struct {
	Endpoint   string
	APIKey     string
	Model      string
	Dimensions int
}

const (
	maxEmbedAttempts  = 3
	embedRetryBase    = 500 * time.Millisecond
	embedRetryCeiling = 5 * time.Second
)

type openaiClient struct {
	endpoint   string
	apiKey     string
	model      string
	dimensions int
	httpClient *http.Client
}

// NewOpenAI builds an Embedder backed by an OpenAI-compatible API.
func NewOpenAI(cfg OpenAIConfig) Embedder {
	return &openaiClient{
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type openaiEmbedRequest struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type openaiEmbedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *openaiClient) Dimensions() int { return c.dimensions }

// Embed retries rate limits and transient upstream failures a few times,
// honoring Retry-After when the API sends one.
func (c *openaiClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	body := openaiEmbedRequest{Input: texts, Model: c.model}
	if c.dimensions > 0 {
		body.Dimensions = c.dimensions
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("embedding: marshal openai request: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= maxEmbedAttempts; attempt++ {
		embeddings, retryIn, err := c.embedOnce(ctx, payload, len(texts))
		if err == nil {
			return embeddings, nil
		}
		lastErr = err
		if retryIn < 0 || attempt == maxEmbedAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("embedding: openai retry aborted: %w", ctx.Err())
		case <-time.After(retryIn):
		}
	}
	return nil, lastErr
}

// embedOnce performs a single API call. A negative retryIn marks the failure
// as permanent.
func (c *openaiClient) embedOnce(ctx context.Context, payload []byte, n int) (embeddings [][]float32, retryIn time.Duration, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/embeddings", bytes.NewReader(payload))
	if err != nil {
		return nil, -1, fmt.Errorf("embedding: build openai request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		wrapped := fmt.Errorf("embedding: openai request failed: %w", err)
		if httpx.IsRetryableError(err) {
			return nil, httpx.JitterSleep(embedRetryBase), wrapped
		}
		return nil, -1, wrapped
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := fmt.Sprintf("HTTP %d", resp.StatusCode)
		var out openaiEmbedResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&out); decodeErr == nil && out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		failure := fmt.Errorf("embedding: openai embed failed: %s", msg)
		if httpx.IsRetryableHTTPStatus(resp.StatusCode) {
			return nil, httpx.RetryAfterDuration(resp, httpx.JitterSleep(embedRetryBase), embedRetryCeiling), failure
		}
		return nil, -1, failure
	}

	var out openaiEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, -1, fmt.Errorf("embedding: decode openai response: %w", err)
	}
	if len(out.Data) != n {
		return nil, -1, fmt.Errorf("embedding: openai returned %d embeddings for %d inputs", len(out.Data), n)
	}

	// The API is allowed to return items out of order; place by index.
	embeddings = make([][]float32, n)
	for _, item := range out.Data {
		if item.Index < 0 || item.Index >= n {
			return nil, -1, fmt.Errorf("embedding: openai returned index %d for batch of %d", item.Index, n)
		}
		embeddings[item.Index] = item.Embedding
	}
	return embeddings, 0, nil
}

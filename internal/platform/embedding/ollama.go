package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// OllamaConfig holds the settings for the local Ollama embedding backend.
type OllamaConfig struct {
	Endpoint   string
	Model      string
	Dimensions int
}

type ollamaClient struct {
	endpoint   string
	model      string
	dimensions int
	httpClient *http.Client
}

// NewOllama builds an Embedder backed by an Ollama server. No API key is
// involved; Ollama is expected to run inside the deployment boundary.
func NewOllama(cfg OllamaConfig) Embedder {
	return &ollamaClient{
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Error      string      `json:"error,omitempty"`
}

func (c *ollamaClient) Dimensions() int { return c.dimensions }

func (c *ollamaClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	payload, err := json.Marshal(ollamaEmbedRequest{Model: c.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("embedding: marshal ollama request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/api/embed", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("embedding: build ollama request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding: ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	var out ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("embedding: decode ollama response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := fmt.Sprintf("HTTP %d", resp.StatusCode)
		if out.Error != "" {
			msg = out.Error
		}
		return nil, fmt.Errorf("embedding: ollama embed failed: %s", msg)
	}
	if len(out.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding: ollama returned %d embeddings for %d inputs", len(out.Embeddings), len(texts))
	}
	return out.Embeddings, nil
}

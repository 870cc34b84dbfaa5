// Package embedding converts text into dense vectors for retrieval. Two
// providers are supported: a local Ollama server (/api/embed) and any
// OpenAI-compatible API (/v1/embeddings). The provider is resolved once at
// startup from EMBEDDING_* environment variables.
package embedding

import (
	"context"
	"fmt"

	"github.com/replyhive/replyhive-backend/internal/platform/envutil"
)

// Embedder turns a batch of texts into vectors. The returned slice is
// parallel to the input. Dimensions reports the vector size this embedder
// produces so collection creation can size itself without a probe call.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

const (
	defaultOllamaEndpoint   = "http://localhost:11434"
	defaultOllamaModel      = "nomic-embed-text"
	defaultOllamaDimensions = 768

	defaultOpenAIEndpoint   = "https://api.openai.com/v1"
	defaultOpenAIModel      = "text-embedding-3-small"
	defaultOpenAIDimensions = 1536
)

// NewFromEnv builds the embedder selected by EMBEDDING_PROVIDER (default
// ollama). Model, endpoint and dimensions fall back to per-provider defaults
// when EMBEDDING_MODEL / EMBEDDING_ENDPOINT / EMBEDDING_DIMENSIONS are unset.
func NewFromEnv() (Embedder, error) {
	provider := envutil.String("EMBEDDING_PROVIDER", ProviderOllama)
	switch provider {
	case ProviderOllama:
		return NewOllama(OllamaConfig{
			Endpoint:   envutil.String("EMBEDDING_ENDPOINT", defaultOllamaEndpoint),
			Model:      envutil.String("EMBEDDING_MODEL", defaultOllamaModel),
			Dimensions: envutil.Int("EMBEDDING_DIMENSIONS", defaultOllamaDimensions),
		}), nil
	case ProviderOpenAI:
		apiKey := envutil.String("EMBEDDING_API_KEY", "")
		if apiKey == "" {
			return nil, fmt.Errorf("embedding: provider %q requires EMBEDDING_API_KEY", provider)
		}
		return NewOpenAI(OpenAIConfig{
			Endpoint:   envutil.String("EMBEDDING_ENDPOINT", defaultOpenAIEndpoint),
			APIKey:     apiKey,
			Model:      envutil.String("EMBEDDING_MODEL", defaultOpenAIModel),
			Dimensions: envutil.Int("EMBEDDING_DIMENSIONS", defaultOpenAIDimensions),
		}), nil
	default:
		return nil, fmt.Errorf("embedding: unknown EMBEDDING_PROVIDER %q (want %q or %q)", provider, ProviderOllama, ProviderOpenAI)
	}
}

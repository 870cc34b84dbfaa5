package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOllamaEmbedBatch(t *testing.T) {
	var gotPath, gotModel string
	var gotInput []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		var req ollamaEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		gotModel = req.Model
		gotInput = req.Input
		_ = json.NewEncoder(w).Encode(ollamaEmbedResponse{
			Embeddings: [][]float32{{0.1, 0.2}, {0.3, 0.4}},
		})
	}))
	defer srv.Close()

	emb := NewOllama(OllamaConfig{Endpoint: srv.URL, Model: "nomic-embed-text", Dimensions: 2})
	vecs, err := emb.Embed(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if gotPath != "/api/embed" {
		t.Fatalf("path: want=%q got=%q", "/api/embed", gotPath)
	}
	if gotModel != "nomic-embed-text" {
		t.Fatalf("model: want=%q got=%q", "nomic-embed-text", gotModel)
	}
	if len(gotInput) != 2 || gotInput[0] != "first" {
		t.Fatalf("input: want 2 texts starting with %q, got %v", "first", gotInput)
	}
	if len(vecs) != 2 {
		t.Fatalf("embeddings: want=2 got=%d", len(vecs))
	}
	if vecs[1][0] != 0.3 {
		t.Fatalf("embeddings[1][0]: want=0.3 got=%v", vecs[1][0])
	}
	if emb.Dimensions() != 2 {
		t.Fatalf("Dimensions: want=2 got=%d", emb.Dimensions())
	}
}

func TestOllamaEmbedServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(ollamaEmbedResponse{Error: "model not found"})
	}))
	defer srv.Close()

	emb := NewOllama(OllamaConfig{Endpoint: srv.URL, Model: "missing"})
	_, err := emb.Embed(context.Background(), []string{"text"})
	if err == nil {
		t.Fatalf("Embed: expected error, got nil")
	}
	if !strings.Contains(err.Error(), "model not found") {
		t.Fatalf("error: want server message, got %q", err.Error())
	}
}

func TestOllamaEmbedCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(ollamaEmbedResponse{Embeddings: [][]float32{{0.1}}})
	}))
	defer srv.Close()

	emb := NewOllama(OllamaConfig{Endpoint: srv.URL, Model: "nomic-embed-text"})
	_, err := emb.Embed(context.Background(), []string{"a", "b"})
	if err == nil {
		t.Fatalf("Embed: expected mismatch error, got nil")
	}
}

func TestOllamaEmbedEmptyBatch(t *testing.T) {
	emb := NewOllama(OllamaConfig{Endpoint: "http://unused", Model: "nomic-embed-text"})
	vecs, err := emb.Embed(context.Background(), nil)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vecs) != 0 {
		t.Fatalf("embeddings: want=0 got=%d", len(vecs))
	}
}

func TestOpenAIEmbedOrdering(t *testing.T) {
	var gotAuth, gotPath string
	var gotBody openaiEmbedRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[
			{"embedding":[0.9],"index":1},
			{"embedding":[0.1],"index":0}
		]}`))
	}))
	defer srv.Close()

	emb := NewOpenAI(OpenAIConfig{Endpoint: srv.URL, APIKey: "sk-test", Model: "text-embedding-3-small", Dimensions: 1})
	vecs, err := emb.Embed(context.Background(), []string{"zero", "one"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if gotAuth != "Bearer sk-test" {
		t.Fatalf("authorization: want=%q got=%q", "Bearer sk-test", gotAuth)
	}
	if gotPath != "/embeddings" {
		t.Fatalf("path: want=%q got=%q", "/embeddings", gotPath)
	}
	if gotBody.Dimensions != 1 {
		t.Fatalf("dimensions: want=1 got=%d", gotBody.Dimensions)
	}
	if vecs[0][0] != 0.1 || vecs[1][0] != 0.9 {
		t.Fatalf("ordering: want [0.1] then [0.9], got %v", vecs)
	}
}

func TestOpenAIEmbedAPIError(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid api key"}}`))
	}))
	defer srv.Close()

	emb := NewOpenAI(OpenAIConfig{Endpoint: srv.URL, APIKey: "bad", Model: "text-embedding-3-small"})
	_, err := emb.Embed(context.Background(), []string{"text"})
	if err == nil {
		t.Fatalf("Embed: expected error, got nil")
	}
	if !strings.Contains(err.Error(), "invalid api key") {
		t.Fatalf("error: want API message, got %q", err.Error())
	}
	if requests != 1 {
		t.Fatalf("auth failures must not be retried; requests=%d", requests)
	}
}

func TestOpenAIEmbedRetriesRateLimit(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"embedding":[0.5],"index":0}]}`))
	}))
	defer srv.Close()

	emb := NewOpenAI(OpenAIConfig{Endpoint: srv.URL, APIKey: "sk-test", Model: "text-embedding-3-small", Dimensions: 1})
	vecs, err := emb.Embed(context.Background(), []string{"text"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if requests != 2 {
		t.Fatalf("requests: want=2 got=%d", requests)
	}
	if len(vecs) != 1 || vecs[0][0] != 0.5 {
		t.Fatalf("embeddings: want [[0.5]], got %v", vecs)
	}
}

func TestNewFromEnvDefaultsToOllama(t *testing.T) {
	t.Setenv("EMBEDDING_PROVIDER", "")
	t.Setenv("EMBEDDING_DIMENSIONS", "")

	emb, err := NewFromEnv()
	if err != nil {
		t.Fatalf("NewFromEnv: %v", err)
	}
	if emb.Dimensions() != defaultOllamaDimensions {
		t.Fatalf("Dimensions: want=%d got=%d", defaultOllamaDimensions, emb.Dimensions())
	}
}

func TestNewFromEnvDimensionsOverride(t *testing.T) {
	t.Setenv("EMBEDDING_PROVIDER", "ollama")
	t.Setenv("EMBEDDING_DIMENSIONS", "1024")

	emb, err := NewFromEnv()
	if err != nil {
		t.Fatalf("NewFromEnv: %v", err)
	}
	if emb.Dimensions() != 1024 {
		t.Fatalf("Dimensions: want=1024 got=%d", emb.Dimensions())
	}
}

func TestNewFromEnvOpenAIRequiresKey(t *testing.T) {
	t.Setenv("EMBEDDING_PROVIDER", "openai")
	t.Setenv("EMBEDDING_API_KEY", "")

	_, err := NewFromEnv()
	if err == nil {
		t.Fatalf("NewFromEnv: expected error for missing EMBEDDING_API_KEY, got nil")
	}
}

func TestNewFromEnvUnknownProvider(t *testing.T) {
	t.Setenv("EMBEDDING_PROVIDER", "bedrock")

	_, err := NewFromEnv()
	if err == nil {
		t.Fatalf("NewFromEnv: expected error for unknown provider, got nil")
	}
}

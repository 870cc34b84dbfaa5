package app

import (
	"errors"
	"fmt"
	"net"
	neturl "net/url"
	"strings"

	"github.com/replyhive/replyhive-backend/internal/observability"
	"github.com/replyhive/replyhive-backend/internal/platform/chunkstore"
	"github.com/replyhive/replyhive-backend/internal/platform/embedding"
	"github.com/replyhive/replyhive-backend/internal/platform/envutil"
	"github.com/replyhive/replyhive-backend/internal/platform/logger"
	"github.com/replyhive/replyhive-backend/internal/realtime/bus"
)

// Constructor seams so bootstrap tests can substitute failures per stage.
var (
	newEmbedderFromEnv = embedding.NewFromEnv
	newQdrantStore     = chunkstore.NewQdrantStore
	newBusFromEnv      = bus.NewFromEnv
)

const chunkStoreProvider = "qdrant"

type Clients struct {
	Store chunkstore.ChunkStore
	Bus   bus.Bus
}

func wireClients(log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")

	store, err := resolveChunkStore(log)
	if err != nil {
		return Clients{}, err
	}

	events, err := newBusFromEnv(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init pipeline event bus: %w", err)
	}

	return Clients{Store: store, Bus: events}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Bus != nil {
		_ = c.Bus.Close()
	}
	if c.Store != nil {
		_ = c.Store.Close()
	}
}

type ChunkStoreBootstrapErrorCode string

const (
	ChunkStoreBootstrapErrorInvalidQdrantPort   ChunkStoreBootstrapErrorCode = "invalid_qdrant_port"
	ChunkStoreBootstrapErrorInvalidQdrantTLS    ChunkStoreBootstrapErrorCode = "invalid_qdrant_tls"
	ChunkStoreBootstrapErrorInvalidQdrantPrefix ChunkStoreBootstrapErrorCode = "invalid_qdrant_prefix"
	ChunkStoreBootstrapErrorQdrantConfigFailed  ChunkStoreBootstrapErrorCode = "qdrant_config_failed"
	ChunkStoreBootstrapErrorEmbedderConfig      ChunkStoreBootstrapErrorCode = "embedder_config_failed"
	ChunkStoreBootstrapErrorConnectFailed       ChunkStoreBootstrapErrorCode = "connect_failed"
	ChunkStoreBootstrapErrorProviderInitFailed  ChunkStoreBootstrapErrorCode = "provider_init_failed"
	ChunkStoreBootstrapCodeDisabledMissingKey   ChunkStoreBootstrapErrorCode = "disabled_missing_api_key"
)

// ChunkStoreBootstrapError reports why the retrieval backend could not be
// constructed at startup, with a stable code for logs and metrics.
type ChunkStoreBootstrapError struct {
	Code     ChunkStoreBootstrapErrorCode
	Provider string
	Cause    error
}

func (e *ChunkStoreBootstrapError) Error() string {
	if e == nil {
		return "chunk store bootstrap failed"
	}
	return fmt.Sprintf("chunk store bootstrap failed (code=%s provider=%q): %v", e.Code, e.Provider, e.Cause)
}

func (e *ChunkStoreBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// resolveChunkStore builds the retrieval backend: an embedder from the
// EMBEDDING_* env, a Qdrant client from the QDRANT_* env, and a metrics
// wrapper around both. An OpenAI embedding provider without an API key
// degrades to a disabled store instead of failing startup, so the pipeline
// registry half of the API keeps working without retrieval.
func resolveChunkStore(log *logger.Logger) (chunkstore.ChunkStore, error) {
	metrics := observability.Current()

	embProvider := envutil.String("EMBEDDING_PROVIDER", embedding.ProviderOllama)
	if embProvider == embedding.ProviderOpenAI && envutil.String("EMBEDDING_API_KEY", "") == "" {
		log.Warn("EMBEDDING_API_KEY not set; knowledge retrieval disabled")
		if metrics != nil {
			metrics.SetChunkStoreProvider("disabled")
			metrics.ObserveChunkStoreBootstrap(chunkStoreProvider, "degraded", string(ChunkStoreBootstrapCodeDisabledMissingKey))
		}
		return chunkstore.NewDisabled("embedding api key not configured"), nil
	}

	cfg, err := chunkstore.ResolveConfigFromEnv()
	if err != nil {
		return nil, failChunkStoreBootstrap(log, metrics, err)
	}

	embedder, err := newEmbedderFromEnv()
	if err != nil {
		return nil, failChunkStoreBootstrap(log, metrics, err)
	}

	log.Info(
		"Selecting chunk store provider",
		"provider", chunkStoreProvider,
		"qdrant_host", cfg.Host,
		"qdrant_port", cfg.Port,
		"collection_prefix", cfg.CollectionPrefix,
		"embedding_provider", embProvider,
		"embedding_dimensions", embedder.Dimensions(),
	)

	store, err := newQdrantStore(cfg, embedder, log)
	if err != nil {
		return nil, failChunkStoreBootstrap(log, metrics, err)
	}

	if metrics != nil {
		metrics.SetChunkStoreProvider(chunkStoreProvider)
		metrics.ObserveChunkStoreBootstrap(chunkStoreProvider, "success", "none")
	}
	return instrumentChunkStore(store), nil
}

func failChunkStoreBootstrap(log *logger.Logger, metrics *observability.Metrics, err error) error {
	classified := classifyChunkStoreBootstrapError(err)
	code := chunkStoreBootstrapErrorCode(classified)
	if metrics != nil {
		metrics.ObserveChunkStoreBootstrap(chunkStoreProvider, "error", string(code))
	}
	log.Error(
		"Chunk store bootstrap failed",
		"provider", chunkStoreProvider,
		"error_code", string(code),
		"error", classified,
	)
	return classified
}

func classifyChunkStoreBootstrapError(err error) error {
	var cfgErr *chunkstore.ConfigError
	if errors.As(err, &cfgErr) {
		code := ChunkStoreBootstrapErrorQdrantConfigFailed
		switch cfgErr.Code {
		case chunkstore.ConfigErrorInvalidPort:
			code = ChunkStoreBootstrapErrorInvalidQdrantPort
		case chunkstore.ConfigErrorInvalidUseTLS:
			code = ChunkStoreBootstrapErrorInvalidQdrantTLS
		case chunkstore.ConfigErrorInvalidPrefix:
			code = ChunkStoreBootstrapErrorInvalidQdrantPrefix
		}
		return &ChunkStoreBootstrapError{Code: code, Provider: chunkStoreProvider, Cause: err}
	}

	var urlErr *neturl.Error
	if errors.As(err, &urlErr) {
		return &ChunkStoreBootstrapError{Code: ChunkStoreBootstrapErrorConnectFailed, Provider: chunkStoreProvider, Cause: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return &ChunkStoreBootstrapError{Code: ChunkStoreBootstrapErrorConnectFailed, Provider: chunkStoreProvider, Cause: err}
	}

	errLower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errLower, "connection refused"), strings.Contains(errLower, "no such host"):
		return &ChunkStoreBootstrapError{Code: ChunkStoreBootstrapErrorConnectFailed, Provider: chunkStoreProvider, Cause: err}
	case strings.HasPrefix(errLower, "embedding:"):
		return &ChunkStoreBootstrapError{Code: ChunkStoreBootstrapErrorEmbedderConfig, Provider: chunkStoreProvider, Cause: err}
	}

	return &ChunkStoreBootstrapError{Code: ChunkStoreBootstrapErrorProviderInitFailed, Provider: chunkStoreProvider, Cause: err}
}

func chunkStoreBootstrapErrorCode(err error) ChunkStoreBootstrapErrorCode {
	var bootstrapErr *ChunkStoreBootstrapError
	if errors.As(err, &bootstrapErr) && bootstrapErr.Code != "" {
		return bootstrapErr.Code
	}
	return ChunkStoreBootstrapErrorProviderInitFailed
}

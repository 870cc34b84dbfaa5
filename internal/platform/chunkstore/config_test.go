package chunkstore

import "testing"

func clearChunkStoreEnv(t *testing.T) {
	t.Helper()
	t.Setenv("QDRANT_HOST", "")
	t.Setenv("QDRANT_PORT", "")
	t.Setenv("QDRANT_API_KEY", "")
	t.Setenv("QDRANT_USE_TLS", "")
	t.Setenv("QDRANT_COLLECTION_PREFIX", "")
}

func TestResolveConfigFromEnvDefaults(t *testing.T) {
	clearChunkStoreEnv(t)

	cfg, err := ResolveConfigFromEnv()
	if err != nil {
		t.Fatalf("ResolveConfigFromEnv: %v", err)
	}
	if cfg.Host != "localhost" {
		t.Fatalf("Host: want=%q got=%q", "localhost", cfg.Host)
	}
	if cfg.Port != 6334 {
		t.Fatalf("Port: want=%d got=%d", 6334, cfg.Port)
	}
	if cfg.UseTLS {
		t.Fatalf("UseTLS: want=false got=true")
	}
	if cfg.CollectionPrefix != "rh" {
		t.Fatalf("CollectionPrefix: want=%q got=%q", "rh", cfg.CollectionPrefix)
	}
}

func TestResolveConfigFromEnvValid(t *testing.T) {
	clearChunkStoreEnv(t)
	t.Setenv("QDRANT_HOST", "qdrant.internal")
	t.Setenv("QDRANT_PORT", "7334")
	t.Setenv("QDRANT_API_KEY", "secret")
	t.Setenv("QDRANT_USE_TLS", "true")
	t.Setenv("QDRANT_COLLECTION_PREFIX", "replyhive")

	cfg, err := ResolveConfigFromEnv()
	if err != nil {
		t.Fatalf("ResolveConfigFromEnv: %v", err)
	}
	if cfg.Host != "qdrant.internal" {
		t.Fatalf("Host: want=%q got=%q", "qdrant.internal", cfg.Host)
	}
	if cfg.Port != 7334 {
		t.Fatalf("Port: want=%d got=%d", 7334, cfg.Port)
	}
	if cfg.APIKey != "secret" {
		t.Fatalf("APIKey: want=%q got=%q", "secret", cfg.APIKey)
	}
	if !cfg.UseTLS {
		t.Fatalf("UseTLS: want=true got=false")
	}
	if cfg.CollectionPrefix != "replyhive" {
		t.Fatalf("CollectionPrefix: want=%q got=%q", "replyhive", cfg.CollectionPrefix)
	}
}

func TestResolveConfigFromEnvInvalidPort(t *testing.T) {
	clearChunkStoreEnv(t)
	t.Setenv("QDRANT_PORT", "not-a-port")

	_, err := ResolveConfigFromEnv()
	if err == nil {
		t.Fatalf("ResolveConfigFromEnv: expected error, got nil")
	}
	cfgErr, ok := err.(*ConfigError)
	if !ok {
		t.Fatalf("expected *ConfigError, got=%T", err)
	}
	if cfgErr.Code != ConfigErrorInvalidPort {
		t.Fatalf("code: want=%q got=%q", ConfigErrorInvalidPort, cfgErr.Code)
	}
}

func TestResolveConfigFromEnvPortOutOfRange(t *testing.T) {
	clearChunkStoreEnv(t)
	t.Setenv("QDRANT_PORT", "70000")

	_, err := ResolveConfigFromEnv()
	if err == nil {
		t.Fatalf("ResolveConfigFromEnv: expected error, got nil")
	}
	cfgErr, ok := err.(*ConfigError)
	if !ok {
		t.Fatalf("expected *ConfigError, got=%T", err)
	}
	if cfgErr.Code != ConfigErrorInvalidPort {
		t.Fatalf("code: want=%q got=%q", ConfigErrorInvalidPort, cfgErr.Code)
	}
}

func TestResolveConfigFromEnvInvalidUseTLS(t *testing.T) {
	clearChunkStoreEnv(t)
	t.Setenv("QDRANT_USE_TLS", "maybe")

	_, err := ResolveConfigFromEnv()
	if err == nil {
		t.Fatalf("ResolveConfigFromEnv: expected error, got nil")
	}
	cfgErr, ok := err.(*ConfigError)
	if !ok {
		t.Fatalf("expected *ConfigError, got=%T", err)
	}
	if cfgErr.Code != ConfigErrorInvalidUseTLS {
		t.Fatalf("code: want=%q got=%q", ConfigErrorInvalidUseTLS, cfgErr.Code)
	}
}

func TestResolveConfigFromEnvInvalidPrefix(t *testing.T) {
	clearChunkStoreEnv(t)
	t.Setenv("QDRANT_COLLECTION_PREFIX", "Reply-Hive")

	_, err := ResolveConfigFromEnv()
	if err == nil {
		t.Fatalf("ResolveConfigFromEnv: expected error, got nil")
	}
	cfgErr, ok := err.(*ConfigError)
	if !ok {
		t.Fatalf("expected *ConfigError, got=%T", err)
	}
	if cfgErr.Code != ConfigErrorInvalidPrefix {
		t.Fatalf("code: want=%q got=%q", ConfigErrorInvalidPrefix, cfgErr.Code)
	}
}

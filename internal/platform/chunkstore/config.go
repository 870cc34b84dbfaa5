package chunkstore

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	defaultHost             = "localhost"
	defaultPort             = 6334
	defaultCollectionPrefix = "rh"
)

type Config struct {
	Host             string
	Port             int
	APIKey           string
	UseTLS           bool
	CollectionPrefix string
}

type ConfigErrorCode string

const (
	ConfigErrorInvalidPort   ConfigErrorCode = "invalid_port"
	ConfigErrorInvalidUseTLS ConfigErrorCode = "invalid_use_tls"
	ConfigErrorInvalidPrefix ConfigErrorCode = "invalid_prefix"
)

type ConfigError struct {
	Code  ConfigErrorCode
	Value string
	Cause error
}

func (e *ConfigError) Error() string {
	if e == nil {
		return "invalid chunkstore config"
	}
	switch e.Code {
	case ConfigErrorInvalidPort:
		return fmt.Sprintf("invalid QDRANT_PORT=%q; expected integer in [1,65535]", e.Value)
	case ConfigErrorInvalidUseTLS:
		return fmt.Sprintf("invalid QDRANT_USE_TLS=%q; expected true or false", e.Value)
	case ConfigErrorInvalidPrefix:
		return fmt.Sprintf("invalid QDRANT_COLLECTION_PREFIX=%q; expected lowercase letters, digits or underscores", e.Value)
	default:
		return "invalid chunkstore config"
	}
}

func (e *ConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// ResolveConfigFromEnv reads QDRANT_* variables. Host, port and prefix have
// working local defaults; only malformed values fail.
func ResolveConfigFromEnv() (Config, error) {
	cfg := Config{
		Host:             strings.TrimSpace(os.Getenv("QDRANT_HOST")),
		Port:             defaultPort,
		APIKey:           strings.TrimSpace(os.Getenv("QDRANT_API_KEY")),
		CollectionPrefix: strings.TrimSpace(os.Getenv("QDRANT_COLLECTION_PREFIX")),
	}
	if cfg.Host == "" {
		cfg.Host = defaultHost
	}
	if cfg.CollectionPrefix == "" {
		cfg.CollectionPrefix = defaultCollectionPrefix
	}

	rawPort := strings.TrimSpace(os.Getenv("QDRANT_PORT"))
	if rawPort != "" {
		port, err := strconv.Atoi(rawPort)
		if err != nil || port < 1 || port > 65535 {
			return Config{}, &ConfigError{Code: ConfigErrorInvalidPort, Value: rawPort, Cause: err}
		}
		cfg.Port = port
	}

	rawTLS := strings.ToLower(strings.TrimSpace(os.Getenv("QDRANT_USE_TLS")))
	switch rawTLS {
	case "":
	case "1", "true", "yes", "on":
		cfg.UseTLS = true
	case "0", "false", "no", "off":
		cfg.UseTLS = false
	default:
		return Config{}, &ConfigError{Code: ConfigErrorInvalidUseTLS, Value: rawTLS}
	}

	if !validCollectionPrefix(cfg.CollectionPrefix) {
		return Config{}, &ConfigError{Code: ConfigErrorInvalidPrefix, Value: cfg.CollectionPrefix}
	}
	return cfg, nil
}

// validCollectionPrefix keeps generated collection names inside the
// character set Qdrant accepts without escaping.
func validCollectionPrefix(prefix string) bool {
	if prefix == "" {
		return false
	}
	for _, r := range prefix {
		ok := r == '_' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !ok {
			return false
		}
	}
	return true
}

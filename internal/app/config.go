package app

import (
	"github.com/replyhive/replyhive-backend/internal/platform/envutil"
	"github.com/replyhive/replyhive-backend/internal/platform/logger"
	"github.com/replyhive/replyhive-backend/internal/services"
)

type Config struct {
	Auth        services.AuthConfig
	HTTPAddr    string
	MetricsAddr string
	RedisAddr   string
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		Auth:        services.AuthConfigFromEnv(),
		HTTPAddr:    envutil.String("HTTP_ADDR", ":8080"),
		MetricsAddr: envutil.String("METRICS_ADDR", ""),
		RedisAddr:   envutil.String("REDIS_ADDR", ""),
	}
	if cfg.Auth.JWTSecret == "" {
		log.Warn("JWT_SECRET_KEY not set, falling back to an insecure default")
		cfg.Auth.JWTSecret = "defaultsecret"
	}
	return cfg
}

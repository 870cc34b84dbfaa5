package app

import (
	"github.com/replyhive/replyhive-backend/internal/http/middleware"
	"github.com/replyhive/replyhive-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *middleware.AuthMiddleware
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: middleware.NewAuthMiddleware(log, services.Auth),
	}
}

package app

import (
	"github.com/gin-gonic/gin"

	httpserver "github.com/replyhive/replyhive-backend/internal/http"
	"github.com/replyhive/replyhive-backend/internal/observability"
	"github.com/replyhive/replyhive-backend/internal/platform/logger"
)

func wireRouter(log *logger.Logger, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *gin.Engine {
	return httpserver.NewRouter(httpserver.RouterConfig{
		Log:     log,
		Metrics: metrics,

		AuthMiddleware: middleware.Auth,

		HealthHandler:         handlers.Health,
		AuthHandler:           handlers.Auth,
		AgentHandler:          handlers.Agent,
		DocumentHandler:       handlers.Document,
		SearchHandler:         handlers.Search,
		KnowledgeStatsHandler: handlers.KnowledgeStats,
		InboxHandler:          handlers.Inbox,
		PipelineHandler:       handlers.Pipeline,
	})
}

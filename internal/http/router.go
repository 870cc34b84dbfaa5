package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/replyhive/replyhive-backend/internal/http/handlers"
	httpMW "github.com/replyhive/replyhive-backend/internal/http/middleware"
	"github.com/replyhive/replyhive-backend/internal/observability"
	"github.com/replyhive/replyhive-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log     *logger.Logger
	Metrics *observability.Metrics

	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler         *httpH.HealthHandler
	AuthHandler           *httpH.AuthHandler
	AgentHandler          *httpH.AgentHandler
	DocumentHandler       *httpH.DocumentHandler
	SearchHandler         *httpH.SearchHandler
	KnowledgeStatsHandler *httpH.KnowledgeStatsHandler
	InboxHandler          *httpH.InboxHandler
	PipelineHandler       *httpH.PipelineHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.CORS())
	r.Use(otelgin.Middleware("replyhive-backend"))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		// Auth (public)
		if cfg.AuthHandler != nil {
			api.POST("/register", cfg.AuthHandler.Register)
			api.POST("/login", cfg.AuthHandler.Login)
		}
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Auth (protected)
		if cfg.AuthHandler != nil {
			protected.POST("/refresh", cfg.AuthHandler.Refresh)
			protected.POST("/logout", cfg.AuthHandler.Logout)
		}

		// Agents
		if cfg.AgentHandler != nil {
			protected.POST("/agents", cfg.AgentHandler.Create)
			protected.GET("/agents", cfg.AgentHandler.List)
			protected.GET("/agents/:agentId", cfg.AgentHandler.Get)
			protected.PATCH("/agents/:agentId", cfg.AgentHandler.Update)
			protected.DELETE("/agents/:agentId", cfg.AgentHandler.Delete)
		}

		// Knowledge documents
		if cfg.DocumentHandler != nil {
			protected.POST("/agents/:agentId/documents", cfg.DocumentHandler.Add)
			protected.GET("/agents/:agentId/documents", cfg.DocumentHandler.List)
			protected.DELETE("/agents/:agentId/documents/:documentId", cfg.DocumentHandler.Delete)
		}

		// Retrieval
		if cfg.SearchHandler != nil {
			protected.GET("/agents/:agentId/search", cfg.SearchHandler.Search)
		}
		if cfg.KnowledgeStatsHandler != nil {
			protected.GET("/agents/:agentId/knowledge/stats", cfg.KnowledgeStatsHandler.Stats)
		}

		// Inboxes
		if cfg.InboxHandler != nil {
			protected.POST("/inboxes", cfg.InboxHandler.Create)
			protected.GET("/inboxes", cfg.InboxHandler.List)
			protected.GET("/inboxes/:inboxId", cfg.InboxHandler.Get)
			protected.PATCH("/inboxes/:inboxId", cfg.InboxHandler.Update)
			protected.DELETE("/inboxes/:inboxId", cfg.InboxHandler.Delete)
		}

		// Pipeline
		if cfg.PipelineHandler != nil {
			protected.GET("/inboxes/:inboxId/agents", cfg.PipelineHandler.ListAgents)
			protected.PUT("/inboxes/:inboxId/agents/response", cfg.PipelineHandler.AssignResponseAgent)
			protected.DELETE("/inboxes/:inboxId/agents/response", cfg.PipelineHandler.RemoveResponseAgent)
			protected.POST("/inboxes/:inboxId/agents/processing", cfg.PipelineHandler.AddProcessingAgent)
			protected.PATCH("/inboxes/:inboxId/agents/processing/:agentId", cfg.PipelineHandler.UpdateProcessingAgent)
			protected.DELETE("/inboxes/:inboxId/agents/processing/:agentId", cfg.PipelineHandler.RemoveProcessingAgent)
		}
	}

	return r
}

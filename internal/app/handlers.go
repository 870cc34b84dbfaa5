package app

import (
	"github.com/replyhive/replyhive-backend/internal/http/handlers"
	"github.com/replyhive/replyhive-backend/internal/platform/logger"
)

type Handlers struct {
	Health *handlers.HealthHandler
	Auth   *handlers.AuthHandler

	Agent    *handlers.AgentHandler
	Document *handlers.DocumentHandler
	Inbox    *handlers.InboxHandler
	Pipeline *handlers.PipelineHandler

	Search         *handlers.SearchHandler
	KnowledgeStats *handlers.KnowledgeStatsHandler
}

func wireHandlers(log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health: handlers.NewHealthHandler(),
		Auth:   handlers.NewAuthHandler(services.Auth),

		Agent:    handlers.NewAgentHandler(services.Agent),
		Document: handlers.NewDocumentHandler(services.Document),
		Inbox:    handlers.NewInboxHandler(services.Inbox),
		Pipeline: handlers.NewPipelineHandler(services.Inbox),

		Search:         handlers.NewSearchHandler(services.Search),
		KnowledgeStats: handlers.NewKnowledgeStatsHandler(services.KnowledgeStats),
	}
}

package app

import (
	"gorm.io/gorm"

	dataagg "github.com/replyhive/replyhive-backend/internal/data/aggregates"
	"github.com/replyhive/replyhive-backend/internal/platform/logger"
	"github.com/replyhive/replyhive-backend/internal/services"
)

type Services struct {
	Auth           services.AuthService
	Agent          services.AgentService
	Inbox          services.InboxService
	Document       services.DocumentService
	Search         services.SearchService
	KnowledgeStats services.KnowledgeStatsService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients) Services {
	log.Info("Wiring services...")

	pipeline := dataagg.NewPipelineAggregate(dataagg.PipelineAggregateDeps{
		Base:        dataagg.BaseDeps{DB: db, Log: log},
		Inboxes:     repos.Inbox,
		Assignments: repos.InboxAgentAssignment,
		Agents:      repos.Agent,
	})

	return Services{
		Auth:           services.NewAuthService(db, log, repos.Account, repos.AccountToken, cfg.Auth),
		Agent:          services.NewAgentService(db, log, repos.Agent, repos.AgentDocument, repos.Inbox, repos.InboxAgentAssignment, clients.Store),
		Inbox:          services.NewInboxService(db, log, repos.Inbox, repos.InboxAgentAssignment, pipeline, clients.Bus),
		Document:       services.NewDocumentService(db, log, repos.Agent, repos.AgentDocument, clients.Store),
		Search:         services.NewSearchService(log, repos.Agent, clients.Store),
		KnowledgeStats: services.NewKnowledgeStatsService(log, repos.Agent, repos.AgentDocument, clients.Store),
	}
}

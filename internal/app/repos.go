package app

import (
	"gorm.io/gorm"

	"github.com/replyhive/replyhive-backend/internal/data/repos"
	"github.com/replyhive/replyhive-backend/internal/platform/logger"
)

type Repos struct {
	Account              repos.AccountRepo
	AccountToken         repos.AccountTokenRepo
	Agent                repos.AgentRepo
	AgentDocument        repos.AgentDocumentRepo
	Inbox                repos.InboxRepo
	InboxAgentAssignment repos.InboxAgentAssignmentRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Account:              repos.NewAccountRepo(db, log),
		AccountToken:         repos.NewAccountTokenRepo(db, log),
		Agent:                repos.NewAgentRepo(db, log),
		AgentDocument:        repos.NewAgentDocumentRepo(db, log),
		Inbox:                repos.NewInboxRepo(db, log),
		InboxAgentAssignment: repos.NewInboxAgentAssignmentRepo(db, log),
	}
}

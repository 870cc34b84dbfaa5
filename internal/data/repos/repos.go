package repos

import (
	"gorm.io/gorm"

	"github.com/replyhive/replyhive-backend/internal/data/repos/account"
	"github.com/replyhive/replyhive-backend/internal/data/repos/agents"
	"github.com/replyhive/replyhive-backend/internal/data/repos/inbox"
	"github.com/replyhive/replyhive-backend/internal/platform/logger"
)

type AccountRepo = account.AccountRepo
type AccountTokenRepo = account.TokenRepo

type AgentRepo = agents.AgentRepo
type AgentDocumentRepo = agents.DocumentRepo
type DocumentTypeCount = agents.DocumentTypeCount

type InboxRepo = inbox.InboxRepo
type InboxAgentAssignmentRepo = inbox.AssignmentRepo

func NewAccountRepo(db *gorm.DB, baseLog *logger.Logger) AccountRepo {
	return account.NewAccountRepo(db, baseLog)
}
func NewAccountTokenRepo(db *gorm.DB, baseLog *logger.Logger) AccountTokenRepo {
	return account.NewTokenRepo(db, baseLog)
}

func NewAgentRepo(db *gorm.DB, baseLog *logger.Logger) AgentRepo {
	return agents.NewAgentRepo(db, baseLog)
}
func NewAgentDocumentRepo(db *gorm.DB, baseLog *logger.Logger) AgentDocumentRepo {
	return agents.NewDocumentRepo(db, baseLog)
}

func NewInboxRepo(db *gorm.DB, baseLog *logger.Logger) InboxRepo {
	return inbox.NewInboxRepo(db, baseLog)
}
func NewInboxAgentAssignmentRepo(db *gorm.DB, baseLog *logger.Logger) InboxAgentAssignmentRepo {
	return inbox.NewAssignmentRepo(db, baseLog)
}

package domain

import (
	"github.com/replyhive/replyhive-backend/internal/domain/account"
	"github.com/replyhive/replyhive-backend/internal/domain/agents"
	"github.com/replyhive/replyhive-backend/internal/domain/inbox"
)

// Aliases so callers can import one package as `types` and reach every
// persisted entity.

type (
	Account      = account.Account
	AccountToken = account.Token

	Agent           = agents.Agent
	AgentRole       = agents.AgentRole
	ResponseAgent   = agents.ResponseAgent
	ProcessingAgent = agents.ProcessingAgent

	AgentDocument  = agents.Document
	DocumentType   = agents.DocumentType
	DocumentStatus = agents.DocumentStatus

	Inbox                = inbox.Inbox
	InboxAgentAssignment = inbox.AgentAssignment
)

const (
	AgentRoleResponse   = agents.RoleResponse
	AgentRoleProcessing = agents.RoleProcessing

	DocumentTypeFile    = agents.DocumentTypeFile
	DocumentTypeURL     = agents.DocumentTypeURL
	DocumentTypeWebsite = agents.DocumentTypeWebsite

	DocumentStatusPending = agents.DocumentStatusPending
	DocumentStatusIndexed = agents.DocumentStatusIndexed
	DocumentStatusFailed  = agents.DocumentStatusFailed

	AssignmentPriorityMin     = inbox.PriorityMin
	AssignmentPriorityMax     = inbox.PriorityMax
	AssignmentPriorityDefault = inbox.PriorityDefault
)

// AssignmentPriorityValid reports whether p is inside the allowed range.
func AssignmentPriorityValid(p int) bool { return inbox.ValidPriority(p) }

package agents

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AgentRole tells the pipeline where an agent may sit: a response agent
// terminates a conversation with a reply, a processing agent transforms or
// annotates it on the way there. The role is fixed at creation.
type AgentRole string

const (
	RoleResponse   AgentRole = "response"
	RoleProcessing AgentRole = "processing"
)

func (r AgentRole) Valid() bool {
	return r == RoleResponse || r == RoleProcessing
}

func (r AgentRole) String() string { return string(r) }

type Agent struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	AccountID uuid.UUID `gorm:"type:uuid;index;not null" json:"account_id"`

	Name        string    `gorm:"not null;column:name" json:"name"`
	Role        AgentRole `gorm:"type:text;not null;index;column:role" json:"role"`
	Description string    `gorm:"column:description;type:text;not null;default:''" json:"description,omitempty"`

	Active bool           `gorm:"not null;default:true;column:active" json:"active"`
	Config datatypes.JSON `gorm:"type:jsonb;column:config;not null;default:'{}'" json:"config,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Agent) TableName() string { return "agent" }

// ResponseAgent and ProcessingAgent are role-checked views of an Agent.
// Code that only makes sense for one role takes the wrapper, so a
// mixed-up agent cannot travel further than the conversion.

type ResponseAgent struct{ *Agent }

type ProcessingAgent struct{ *Agent }

func (a *Agent) AsResponse() (ResponseAgent, bool) {
	if a == nil || a.Role != RoleResponse {
		return ResponseAgent{}, false
	}
	return ResponseAgent{a}, true
}

func (a *Agent) AsProcessing() (ProcessingAgent, bool) {
	if a == nil || a.Role != RoleProcessing {
		return ProcessingAgent{}, false
	}
	return ProcessingAgent{a}, true
}

package inbox

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Inbox owns one agent pipeline. The response slot lives on the row itself
// as nullable columns: it is a single value, not a list, and sharing the row
// means the FOR UPDATE lock taken by pipeline writes covers the slot too.
type Inbox struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	AccountID uuid.UUID `gorm:"type:uuid;index;not null" json:"account_id"`

	Name    string `gorm:"not null;column:name" json:"name"`
	Channel string `gorm:"column:channel;not null;default:''" json:"channel,omitempty"`

	ResponseAgentID    *uuid.UUID     `gorm:"type:uuid;column:response_agent_id" json:"response_agent_id,omitempty"`
	ResponseAssignedAt *time.Time     `gorm:"column:response_assigned_at" json:"response_assigned_at,omitempty"`
	ResponseConfig     datatypes.JSON `gorm:"type:jsonb;column:response_config;not null;default:'{}'" json:"response_config,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Inbox) TableName() string { return "inbox" }

package inbox

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Priority bounds for processing assignments. Lower runs earlier.
const (
	PriorityMin     = 1
	PriorityMax     = 999
	PriorityDefault = 100
)

// AgentAssignment is one processing-pipeline membership. Rows are hard
// deleted so the (inbox_id, agent_id) unique index stays authoritative.
// Seq is a per-inbox counter assigned under the inbox lock; reading
// `priority ASC, seq ASC` keeps equal priorities in insertion order.
type AgentAssignment struct {
	ID      uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	InboxID uuid.UUID `gorm:"type:uuid;not null;index;index:idx_inbox_agent_assignment_pair,unique,priority:1" json:"inbox_id"`
	AgentID uuid.UUID `gorm:"type:uuid;not null;index;index:idx_inbox_agent_assignment_pair,unique,priority:2" json:"agent_id"`

	Priority int   `gorm:"not null;default:100;index;column:priority" json:"priority"`
	Seq      int64 `gorm:"column:seq;not null" json:"seq"`

	Active bool           `gorm:"not null;default:true;column:active" json:"active"`
	Config datatypes.JSON `gorm:"type:jsonb;column:config;not null;default:'{}'" json:"config,omitempty"`

	AssignedAt time.Time `gorm:"not null;default:now();column:assigned_at" json:"assigned_at"`
	CreatedAt  time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (AgentAssignment) TableName() string { return "inbox_agent_assignment" }

// ValidPriority reports whether p is inside the allowed assignment range.
func ValidPriority(p int) bool {
	return p >= PriorityMin && p <= PriorityMax
}

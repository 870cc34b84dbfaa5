package agents

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DocumentType string

const (
	DocumentTypeFile    DocumentType = "file"
	DocumentTypeURL     DocumentType = "url"
	DocumentTypeWebsite DocumentType = "website"
)

func (t DocumentType) Valid() bool {
	switch t {
	case DocumentTypeFile, DocumentTypeURL, DocumentTypeWebsite:
		return true
	default:
		return false
	}
}

type DocumentStatus string

const (
	DocumentStatusPending DocumentStatus = "pending"
	DocumentStatusIndexed DocumentStatus = "indexed"
	DocumentStatusFailed  DocumentStatus = "failed"
)

// Document is a knowledge source registered to an agent. The row is the
// authoritative record of what was added; the chunk store tracks what was
// actually indexed, and the two can drift when indexing fails.
type Document struct {
	ID      uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	AgentID uuid.UUID `gorm:"type:uuid;index;not null" json:"agent_id"`
	Agent   *Agent    `gorm:"constraint:OnDelete:CASCADE;foreignKey:AgentID;references:ID" json:"agent,omitempty"`

	Title     string         `gorm:"not null;column:title" json:"title"`
	DocType   DocumentType   `gorm:"type:text;not null;index;column:doc_type" json:"doc_type"`
	SourceURI string         `gorm:"column:source_uri;not null;default:''" json:"source_uri,omitempty"`
	Language  string         `gorm:"column:language;not null;default:''" json:"language,omitempty"`
	Status    DocumentStatus `gorm:"type:text;not null;default:'pending';index;column:status" json:"status"`

	ChunkCount int `gorm:"not null;default:0;column:chunk_count" json:"chunk_count"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Document) TableName() string { return "agent_document" }

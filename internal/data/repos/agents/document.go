package agents

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/replyhive/replyhive-backend/internal/domain"
	"github.com/replyhive/replyhive-backend/internal/pkg/dbctx"
	"github.com/replyhive/replyhive-backend/internal/platform/logger"
)

// DocumentTypeCount is one row of the per-type breakdown used by knowledge stats.
type DocumentTypeCount struct {
	DocType string `gorm:"column:doc_type"`
	Count   int64  `gorm:"column:count"`
}

type DocumentRepo interface {
	Create(dbc dbctx.Context, row *types.AgentDocument) (*types.AgentDocument, error)
	GetForAgent(dbc dbctx.Context, agentID, documentID uuid.UUID) (*types.AgentDocument, error)
	ListByAgent(dbc dbctx.Context, agentID uuid.UUID) ([]*types.AgentDocument, error)
	CountByAgent(dbc dbctx.Context, agentID uuid.UUID) (int64, error)
	CountByTypeForAgent(dbc dbctx.Context, agentID uuid.UUID) ([]DocumentTypeCount, error)
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type documentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDocumentRepo(db *gorm.DB, log *logger.Logger) DocumentRepo {
	return &documentRepo{db: db, log: log.With("repo", "AgentDocumentRepo")}
}

func (r *documentRepo) Create(dbc dbctx.Context, row *types.AgentDocument) (*types.AgentDocument, error) {
	if row == nil {
		return nil, fmt.Errorf("missing document row")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if err := txx.WithContext(dbc.Ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *documentRepo) GetForAgent(dbc dbctx.Context, agentID, documentID uuid.UUID) (*types.AgentDocument, error) {
	if agentID == uuid.Nil {
		return nil, fmt.Errorf("missing agent_id")
	}
	if documentID == uuid.Nil {
		return nil, fmt.Errorf("missing document_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out types.AgentDocument
	if err := txx.WithContext(dbc.Ctx).
		Where("id = ? AND agent_id = ?", documentID, agentID).
		Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *documentRepo) ListByAgent(dbc dbctx.Context, agentID uuid.UUID) ([]*types.AgentDocument, error) {
	if agentID == uuid.Nil {
		return nil, fmt.Errorf("missing agent_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.AgentDocument
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.AgentDocument{}).
		Where("agent_id = ?", agentID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *documentRepo) CountByAgent(dbc dbctx.Context, agentID uuid.UUID) (int64, error) {
	if agentID == uuid.Nil {
		return 0, fmt.Errorf("missing agent_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var count int64
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.AgentDocument{}).
		Where("agent_id = ?", agentID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *documentRepo) CountByTypeForAgent(dbc dbctx.Context, agentID uuid.UUID) ([]DocumentTypeCount, error) {
	if agentID == uuid.Nil {
		return nil, fmt.Errorf("missing agent_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []DocumentTypeCount
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.AgentDocument{}).
		Select("doc_type, COUNT(*) AS count").
		Where("agent_id = ?", agentID).
		Group("doc_type").
		Order("doc_type ASC").
		Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *documentRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Delete(&types.AgentDocument{}).Error
}

package inbox

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/replyhive/replyhive-backend/internal/domain"
	"github.com/replyhive/replyhive-backend/internal/pkg/dbctx"
	"github.com/replyhive/replyhive-backend/internal/platform/logger"
)

type AssignmentRepo interface {
	Create(dbc dbctx.Context, row *types.InboxAgentAssignment) (*types.InboxAgentAssignment, error)
	GetByPair(dbc dbctx.Context, inboxID, agentID uuid.UUID) (*types.InboxAgentAssignment, error)
	// ListByInbox returns the roster in pipeline order: priority ASC, ties by
	// insertion (seq ASC).
	ListByInbox(dbc dbctx.Context, inboxID uuid.UUID) ([]*types.InboxAgentAssignment, error)
	GetMaxSeq(dbc dbctx.Context, inboxID uuid.UUID) (int64, error)
	// CountRefsForAgent counts processing rosters (across inboxes) holding the agent.
	CountRefsForAgent(dbc dbctx.Context, agentID uuid.UUID) (int64, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	DeleteByPair(dbc dbctx.Context, inboxID, agentID uuid.UUID) (int64, error)
	DeleteByInbox(dbc dbctx.Context, inboxID uuid.UUID) error
}

type assignmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssignmentRepo(db *gorm.DB, log *logger.Logger) AssignmentRepo {
	return &assignmentRepo{db: db, log: log.With("repo", "InboxAgentAssignmentRepo")}
}

func (r *assignmentRepo) Create(dbc dbctx.Context, row *types.InboxAgentAssignment) (*types.InboxAgentAssignment, error) {
	if row == nil {
		return nil, fmt.Errorf("missing assignment row")
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

func (r *assignmentRepo) GetByPair(dbc dbctx.Context, inboxID, agentID uuid.UUID) (*types.InboxAgentAssignment, error) {
	if inboxID == uuid.Nil {
		return nil, fmt.Errorf("missing inbox_id")
	}
	if agentID == uuid.Nil {
		return nil, fmt.Errorf("missing agent_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out types.InboxAgentAssignment
	if err := txx.WithContext(dbc.Ctx).
		Where("inbox_id = ? AND agent_id = ?", inboxID, agentID).
		Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *assignmentRepo) ListByInbox(dbc dbctx.Context, inboxID uuid.UUID) ([]*types.InboxAgentAssignment, error) {
	if inboxID == uuid.Nil {
		return nil, fmt.Errorf("missing inbox_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.InboxAgentAssignment
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.InboxAgentAssignment{}).
		Where("inbox_id = ?", inboxID).
		Order("priority ASC, seq ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *assignmentRepo) GetMaxSeq(dbc dbctx.Context, inboxID uuid.UUID) (int64, error) {
	if inboxID == uuid.Nil {
		return 0, fmt.Errorf("missing inbox_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var maxSeq int64
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.InboxAgentAssignment{}).
		Select("COALESCE(MAX(seq), 0)").
		Where("inbox_id = ?", inboxID).
		Scan(&maxSeq).Error; err != nil {
		return 0, err
	}
	return maxSeq, nil
}

func (r *assignmentRepo) CountRefsForAgent(dbc dbctx.Context, agentID uuid.UUID) (int64, error) {
	if agentID == uuid.Nil {
		return 0, fmt.Errorf("missing agent_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var count int64
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.InboxAgentAssignment{}).
		Where("agent_id = ?", agentID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *assignmentRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing id")
	}
	if len(updates) == 0 {
		return nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Model(&types.InboxAgentAssignment{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *assignmentRepo) DeleteByPair(dbc dbctx.Context, inboxID, agentID uuid.UUID) (int64, error) {
	if inboxID == uuid.Nil {
		return 0, fmt.Errorf("missing inbox_id")
	}
	if agentID == uuid.Nil {
		return 0, fmt.Errorf("missing agent_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	res := txx.WithContext(dbc.Ctx).
		Where("inbox_id = ? AND agent_id = ?", inboxID, agentID).
		Delete(&types.InboxAgentAssignment{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *assignmentRepo) DeleteByInbox(dbc dbctx.Context, inboxID uuid.UUID) error {
	if inboxID == uuid.Nil {
		return fmt.Errorf("missing inbox_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Where("inbox_id = ?", inboxID).
		Delete(&types.InboxAgentAssignment{}).Error
}

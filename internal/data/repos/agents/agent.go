package agents

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/replyhive/replyhive-backend/internal/domain"
	"github.com/replyhive/replyhive-backend/internal/pkg/dbctx"
	"github.com/replyhive/replyhive-backend/internal/platform/logger"
)

type AgentRepo interface {
	Create(dbc dbctx.Context, row *types.Agent) (*types.Agent, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Agent, error)
	// GetForAccount resolves an agent only inside the caller's account scope.
	GetForAccount(dbc dbctx.Context, accountID, agentID uuid.UUID) (*types.Agent, error)
	ListByAccount(dbc dbctx.Context, accountID uuid.UUID) ([]*types.Agent, error)
	ListByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Agent, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type agentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAgentRepo(db *gorm.DB, log *logger.Logger) AgentRepo {
	return &agentRepo{db: db, log: log.With("repo", "AgentRepo")}
}

func (r *agentRepo) Create(dbc dbctx.Context, row *types.Agent) (*types.Agent, error) {
	if row == nil {
		return nil, fmt.Errorf("missing agent row")
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

func (r *agentRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Agent, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out types.Agent
	if err := txx.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *agentRepo) GetForAccount(dbc dbctx.Context, accountID, agentID uuid.UUID) (*types.Agent, error) {
	if accountID == uuid.Nil {
		return nil, fmt.Errorf("missing account_id")
	}
	if agentID == uuid.Nil {
		return nil, fmt.Errorf("missing agent_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out types.Agent
	if err := txx.WithContext(dbc.Ctx).
		Where("id = ? AND account_id = ?", agentID, accountID).
		Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *agentRepo) ListByAccount(dbc dbctx.Context, accountID uuid.UUID) ([]*types.Agent, error) {
	if accountID == uuid.Nil {
		return nil, fmt.Errorf("missing account_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.Agent
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.Agent{}).
		Where("account_id = ?", accountID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *agentRepo) ListByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Agent, error) {
	if len(ids) == 0 {
		return []*types.Agent{}, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.Agent
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.Agent{}).
		Where("id IN ?", ids).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *agentRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.Agent{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *agentRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Delete(&types.Agent{}).Error
}

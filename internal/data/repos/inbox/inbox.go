package inbox

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/replyhive/replyhive-backend/internal/domain"
	"github.com/replyhive/replyhive-backend/internal/pkg/dbctx"
	"github.com/replyhive/replyhive-backend/internal/platform/logger"
)

type InboxRepo interface {
	Create(dbc dbctx.Context, row *types.Inbox) (*types.Inbox, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Inbox, error)
	GetForAccount(dbc dbctx.Context, accountID, inboxID uuid.UUID) (*types.Inbox, error)
	ListByAccount(dbc dbctx.Context, accountID uuid.UUID) ([]*types.Inbox, error)
	// LockByID takes the inbox row FOR UPDATE; pipeline writes serialize on it.
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Inbox, error)
	// CountResponseRefs counts inboxes whose response slot holds the agent.
	CountResponseRefs(dbc dbctx.Context, agentID uuid.UUID) (int64, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type inboxRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewInboxRepo(db *gorm.DB, log *logger.Logger) InboxRepo {
	return &inboxRepo{db: db, log: log.With("repo", "InboxRepo")}
}

func (r *inboxRepo) Create(dbc dbctx.Context, row *types.Inbox) (*types.Inbox, error) {
	if row == nil {
		return nil, fmt.Errorf("missing inbox row")
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

func (r *inboxRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Inbox, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out types.Inbox
	if err := txx.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *inboxRepo) GetForAccount(dbc dbctx.Context, accountID, inboxID uuid.UUID) (*types.Inbox, error) {
	if accountID == uuid.Nil {
		return nil, fmt.Errorf("missing account_id")
	}
	if inboxID == uuid.Nil {
		return nil, fmt.Errorf("missing inbox_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out types.Inbox
	if err := txx.WithContext(dbc.Ctx).
		Where("id = ? AND account_id = ?", inboxID, accountID).
		Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *inboxRepo) ListByAccount(dbc dbctx.Context, accountID uuid.UUID) ([]*types.Inbox, error) {
	if accountID == uuid.Nil {
		return nil, fmt.Errorf("missing account_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.Inbox
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.Inbox{}).
		Where("account_id = ?", accountID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *inboxRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Inbox, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	if dbc.Tx == nil {
		return nil, fmt.Errorf("LockByID requires dbc.Tx")
	}
	var out types.Inbox
	if err := dbc.Tx.WithContext(dbc.Ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *inboxRepo) CountResponseRefs(dbc dbctx.Context, agentID uuid.UUID) (int64, error) {
	if agentID == uuid.Nil {
		return 0, fmt.Errorf("missing agent_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var count int64
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.Inbox{}).
		Where("response_agent_id = ?", agentID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *inboxRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.Inbox{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *inboxRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Delete(&types.Inbox{}).Error
}

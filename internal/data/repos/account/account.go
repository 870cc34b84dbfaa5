package account

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/replyhive/replyhive-backend/internal/domain"
	"github.com/replyhive/replyhive-backend/internal/pkg/dbctx"
	"github.com/replyhive/replyhive-backend/internal/platform/logger"
)

type AccountRepo interface {
	Create(dbc dbctx.Context, row *types.Account) (*types.Account, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Account, error)
	GetByEmail(dbc dbctx.Context, email string) (*types.Account, error)
}

type accountRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAccountRepo(db *gorm.DB, log *logger.Logger) AccountRepo {
	return &accountRepo{db: db, log: log.With("repo", "AccountRepo")}
}

func (r *accountRepo) Create(dbc dbctx.Context, row *types.Account) (*types.Account, error) {
	if row == nil {
		return nil, fmt.Errorf("missing account row")
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

func (r *accountRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Account, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out types.Account
	if err := txx.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *accountRepo) GetByEmail(dbc dbctx.Context, email string) (*types.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("missing email")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out types.Account
	if err := txx.WithContext(dbc.Ctx).
		Where("LOWER(email) = ?", email).
		Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

package account

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/replyhive/replyhive-backend/internal/domain"
	"github.com/replyhive/replyhive-backend/internal/pkg/dbctx"
	"github.com/replyhive/replyhive-backend/internal/platform/logger"
)

type TokenRepo interface {
	Create(dbc dbctx.Context, row *types.AccountToken) (*types.AccountToken, error)
	// GetActiveByHash returns the token row only while it is unrevoked and unexpired.
	GetActiveByHash(dbc dbctx.Context, tokenHash string) (*types.AccountToken, error)
	// GetByHash returns the row whatever its state, so callers can tell a
	// rotated-and-reused token apart from one that never existed.
	GetByHash(dbc dbctx.Context, tokenHash string) (*types.AccountToken, error)
	Revoke(dbc dbctx.Context, id uuid.UUID) error
	RevokeAllForAccount(dbc dbctx.Context, accountID uuid.UUID) error
	PurgeExpired(dbc dbctx.Context, olderThan time.Time) (int64, error)
}

type tokenRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTokenRepo(db *gorm.DB, log *logger.Logger) TokenRepo {
	return &tokenRepo{db: db, log: log.With("repo", "AccountTokenRepo")}
}

func (r *tokenRepo) Create(dbc dbctx.Context, row *types.AccountToken) (*types.AccountToken, error) {
	if row == nil {
		return nil, fmt.Errorf("missing token row")
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

func (r *tokenRepo) GetActiveByHash(dbc dbctx.Context, tokenHash string) (*types.AccountToken, error) {
	if tokenHash == "" {
		return nil, fmt.Errorf("missing token hash")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out types.AccountToken
	if err := txx.WithContext(dbc.Ctx).
		Where("token_hash = ? AND revoked_at IS NULL AND expires_at > ?", tokenHash, time.Now().UTC()).
		Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *tokenRepo) GetByHash(dbc dbctx.Context, tokenHash string) (*types.AccountToken, error) {
	if tokenHash == "" {
		return nil, fmt.Errorf("missing token hash")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out types.AccountToken
	if err := txx.WithContext(dbc.Ctx).
		Where("token_hash = ?", tokenHash).
		Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *tokenRepo) Revoke(dbc dbctx.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	now := time.Now().UTC()
	return txx.WithContext(dbc.Ctx).
		Model(&types.AccountToken{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Updates(map[string]interface{}{"revoked_at": now, "updated_at": now}).Error
}

func (r *tokenRepo) RevokeAllForAccount(dbc dbctx.Context, accountID uuid.UUID) error {
	if accountID == uuid.Nil {
		return fmt.Errorf("missing account_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	now := time.Now().UTC()
	return txx.WithContext(dbc.Ctx).
		Model(&types.AccountToken{}).
		Where("account_id = ? AND revoked_at IS NULL", accountID).
		Updates(map[string]interface{}{"revoked_at": now, "updated_at": now}).Error
}

func (r *tokenRepo) PurgeExpired(dbc dbctx.Context, olderThan time.Time) (int64, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	res := txx.WithContext(dbc.Ctx).
		Unscoped().
		Where("expires_at < ?", olderThan).
		Delete(&types.AccountToken{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

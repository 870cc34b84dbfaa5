package aggregates

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/replyhive/replyhive-backend/internal/pkg/dbctx"
)

// CASGuard provides compare-and-set guard helpers for aggregate writes.
type CASGuard struct {
	db *gorm.DB
}

func NewCASGuard(db *gorm.DB) CASGuard {
	return CASGuard{db: db}
}

func (g CASGuard) baseDB(dbc dbctx.Context) (*gorm.DB, error) {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx), nil
	}
	if g.db != nil {
		return g.db.WithContext(dbc.Ctx), nil
	}
	return nil, ValidationError("missing db transaction context")
}

// UpdateByStatus updates a live row only when the id+status guard matches.
// The table must carry status and deleted_at columns; a row another writer
// deleted or moved out of the allowed statuses is left untouched and the
// guard reports false.
func (g CASGuard) UpdateByStatus(dbc dbctx.Context, table string, id uuid.UUID, allowedStatuses []string, updates map[string]any) (bool, error) {
	db, err := g.baseDB(dbc)
	if err != nil {
		return false, err
	}
	table = strings.TrimSpace(table)
	if table == "" || id == uuid.Nil {
		return false, ValidationError("table and id are required for UpdateByStatus")
	}
	if len(allowedStatuses) == 0 {
		return false, ValidationError("allowedStatuses must not be empty")
	}
	res := db.Table(table).
		Where("id = ? AND status IN ? AND deleted_at IS NULL", id, allowedStatuses).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// RequireCASSuccess converts a failed compare-and-set into a typed conflict error.
func RequireCASSuccess(ok bool, message string) error {
	if ok {
		return nil
	}
	return ConflictError(strings.TrimSpace(message))
}

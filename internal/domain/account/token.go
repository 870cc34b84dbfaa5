package account

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Token is a refresh-token record. Only the sha256 of the issued token is
// stored; revocation is explicit so old rows stay auditable.
type Token struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	AccountID uuid.UUID  `gorm:"type:uuid;index;not null" json:"account_id"`
	Account   *Account   `gorm:"constraint:OnDelete:CASCADE;foreignKey:AccountID;references:ID" json:"account,omitempty"`
	TokenHash string     `gorm:"uniqueIndex;not null;column:token_hash" json:"-"`
	ExpiresAt time.Time  `gorm:"not null;column:expires_at" json:"expires_at"`
	RevokedAt *time.Time `gorm:"column:revoked_at" json:"revoked_at,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Token) TableName() string { return "account_token" }

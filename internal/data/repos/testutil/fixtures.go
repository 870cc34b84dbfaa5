package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/replyhive/replyhive-backend/internal/domain"
)

func SeedAccount(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.Account {
	tb.Helper()
	a := &types.Account{
		ID:       uuid.New(),
		Email:    email,
		Password: "pw",
		Name:     "Test Account",
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed account: %v", err)
	}
	return a
}

func SeedAgent(tb testing.TB, ctx context.Context, tx *gorm.DB, accountID uuid.UUID, name string, role types.AgentRole) *types.Agent {
	tb.Helper()
	ag := &types.Agent{
		ID:        uuid.New(),
		AccountID: accountID,
		Name:      name,
		Role:      role,
		Active:    true,
		Config:    datatypes.JSON([]byte(`{}`)),
	}
	if err := tx.WithContext(ctx).Create(ag).Error; err != nil {
		tb.Fatalf("seed agent: %v", err)
	}
	return ag
}

func SeedInbox(tb testing.TB, ctx context.Context, tx *gorm.DB, accountID uuid.UUID, name string) *types.Inbox {
	tb.Helper()
	ib := &types.Inbox{
		ID:             uuid.New(),
		AccountID:      accountID,
		Name:           name,
		Channel:        "email",
		ResponseConfig: datatypes.JSON([]byte(`{}`)),
	}
	if err := tx.WithContext(ctx).Create(ib).Error; err != nil {
		tb.Fatalf("seed inbox: %v", err)
	}
	return ib
}

func SeedAssignment(tb testing.TB, ctx context.Context, tx *gorm.DB, inboxID, agentID uuid.UUID, priority int, seq int64) *types.InboxAgentAssignment {
	tb.Helper()
	row := &types.InboxAgentAssignment{
		ID:         uuid.New(),
		InboxID:    inboxID,
		AgentID:    agentID,
		Priority:   priority,
		Seq:        seq,
		Active:     true,
		Config:     datatypes.JSON([]byte(`{}`)),
		AssignedAt: time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(row).Error; err != nil {
		tb.Fatalf("seed assignment: %v", err)
	}
	return row
}

func SeedDocument(tb testing.TB, ctx context.Context, tx *gorm.DB, agentID uuid.UUID, title string, docType types.DocumentType) *types.AgentDocument {
	tb.Helper()
	d := &types.AgentDocument{
		ID:      uuid.New(),
		AgentID: agentID,
		Title:   title,
		DocType: docType,
		Status:  types.DocumentStatusPending,
	}
	if err := tx.WithContext(ctx).Create(d).Error; err != nil {
		tb.Fatalf("seed document: %v", err)
	}
	return d
}

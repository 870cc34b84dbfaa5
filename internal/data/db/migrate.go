package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/replyhive/replyhive-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(

		// =========================
		// Identity + auth
		// =========================
		&types.Account{},
		&types.AccountToken{},

		// =========================
		// Agents + knowledge
		// =========================
		&types.Agent{},
		&types.AgentDocument{},

		// =========================
		// Inboxes + pipeline
		// =========================
		&types.Inbox{},
		&types.InboxAgentAssignment{},
	)
}

// EnsurePipelineIndexes adds the composite indexes AutoMigrate's tag syntax
// cannot express. Pipeline reads always order by (priority, seq) inside one
// inbox, and agent deletion scans inboxes by their response slot.
func EnsurePipelineIndexes(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_inbox_agent_assignment_order
		ON inbox_agent_assignment (inbox_id, priority, seq);
	`).Error; err != nil {
		return fmt.Errorf("create idx_inbox_agent_assignment_order: %w", err)
	}

	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_inbox_response_agent
		ON inbox (response_agent_id)
		WHERE response_agent_id IS NOT NULL AND deleted_at IS NULL;
	`).Error; err != nil {
		return fmt.Errorf("create idx_inbox_response_agent: %w", err)
	}

	return nil
}

func EnsureAuthIndexes(db *gorm.DB) error {
	// uuid-ossp is already enabled in NewPostgresService, but safe to re-run
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		return fmt.Errorf("enable uuid-ossp: %w", err)
	}
	// Refresh-token sweeps delete by expiry.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_account_token_expires_at
		ON account_token (expires_at);
	`).Error; err != nil {
		return fmt.Errorf("create idx_account_token_expires_at: %w", err)
	}
	return nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	if err := EnsureAuthIndexes(s.db); err != nil {
		s.log.Error("Auth index migration failed", "error", err)
		return err
	}
	if err := EnsurePipelineIndexes(s.db); err != nil {
		s.log.Error("Pipeline index migration failed", "error", err)
		return err
	}

	return nil
}

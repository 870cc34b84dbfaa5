package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/replyhive/replyhive-backend/internal/data/repos"
	types "github.com/replyhive/replyhive-backend/internal/domain"
	domainagg "github.com/replyhive/replyhive-backend/internal/domain/aggregates"
	"github.com/replyhive/replyhive-backend/internal/pkg/dbctx"
	"github.com/replyhive/replyhive-backend/internal/platform/chunkstore"
	"github.com/replyhive/replyhive-backend/internal/platform/logger"
)

// AgentService owns the agent catalog. An agent's role is picked once at
// creation and never changes; deleting an agent is refused while any inbox
// pipeline still references it.
type AgentService interface {
	Create(ctx context.Context, in CreateAgentInput) (*types.Agent, error)
	Get(ctx context.Context, agentID uuid.UUID) (*types.Agent, error)
	List(ctx context.Context) ([]*types.Agent, error)
	Update(ctx context.Context, agentID uuid.UUID, in UpdateAgentInput) (*types.Agent, error)
	Delete(ctx context.Context, agentID uuid.UUID) error
}

type CreateAgentInput struct {
	Name        string         `json:"name"`
	Role        string         `json:"role"`
	Description string         `json:"description"`
	Active      *bool          `json:"active"`
	Config      map[string]any `json:"config"`
}

type UpdateAgentInput struct {
	Name        *string        `json:"name"`
	Role        *string        `json:"role"`
	Description *string        `json:"description"`
	Active      *bool          `json:"active"`
	Config      map[string]any `json:"config"`
}

type agentService struct {
	db          *gorm.DB
	log         *logger.Logger
	agents      repos.AgentRepo
	documents   repos.AgentDocumentRepo
	inboxes     repos.InboxRepo
	assignments repos.InboxAgentAssignmentRepo
	store       chunkstore.ChunkStore
}

func NewAgentService(
	db *gorm.DB,
	log *logger.Logger,
	agents repos.AgentRepo,
	documents repos.AgentDocumentRepo,
	inboxes repos.InboxRepo,
	assignments repos.InboxAgentAssignmentRepo,
	store chunkstore.ChunkStore,
) AgentService {
	return &agentService{
		db:          db,
		log:         log.With("service", "AgentService"),
		agents:      agents,
		documents:   documents,
		inboxes:     inboxes,
		assignments: assignments,
		store:       store,
	}
}

func (s *agentService) Create(ctx context.Context, in CreateAgentInput) (*types.Agent, error) {
	const op = "Agent.Create"

	rd, err := requireRequestData(ctx, op)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "agent name is required", nil)
	}
	role := types.AgentRole(strings.TrimSpace(in.Role))
	if !role.Valid() {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "agent role must be response or processing", nil)
	}
	config, err := encodeJSONConfig(in.Config)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeValidation, op, err)
	}

	active := true
	if in.Active != nil {
		active = *in.Active
	}

	row := &types.Agent{
		AccountID:   rd.AccountID,
		Name:        name,
		Role:        role,
		Description: strings.TrimSpace(in.Description),
		Active:      active,
		Config:      config,
	}

	var created *types.Agent
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		out, err := s.agents.Create(dbctx.Context{Ctx: ctx, Tx: tx}, row)
		if err != nil {
			return err
		}
		created = out
		return nil
	})
	if txErr != nil {
		return nil, serviceError(op, txErr)
	}
	s.log.Info("agent created", "agent_id", created.ID.String(), "role", created.Role.String())
	return created, nil
}

func (s *agentService) Get(ctx context.Context, agentID uuid.UUID) (*types.Agent, error) {
	const op = "Agent.Get"

	rd, err := requireRequestData(ctx, op)
	if err != nil {
		return nil, err
	}
	if agentID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "agent id is required", nil)
	}

	agent, err := s.agents.GetForAccount(dbctx.Context{Ctx: ctx}, rd.AccountID, agentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainagg.NewError(domainagg.CodeNotFound, op, "agent not found", nil)
		}
		return nil, serviceError(op, err)
	}
	return agent, nil
}

func (s *agentService) List(ctx context.Context) ([]*types.Agent, error) {
	const op = "Agent.List"

	rd, err := requireRequestData(ctx, op)
	if err != nil {
		return nil, err
	}
	agents, err := s.agents.ListByAccount(dbctx.Context{Ctx: ctx}, rd.AccountID)
	if err != nil {
		return nil, serviceError(op, err)
	}
	return agents, nil
}

func (s *agentService) Update(ctx context.Context, agentID uuid.UUID, in UpdateAgentInput) (*types.Agent, error) {
	const op = "Agent.Update"

	rd, err := requireRequestData(ctx, op)
	if err != nil {
		return nil, err
	}
	if agentID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "agent id is required", nil)
	}

	var updated *types.Agent
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}

		agent, err := s.agents.GetForAccount(dbc, rd.AccountID, agentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainagg.NewError(domainagg.CodeNotFound, op, "agent not found", nil)
			}
			return err
		}

		if in.Role != nil && types.AgentRole(strings.TrimSpace(*in.Role)) != agent.Role {
			return domainagg.NewError(domainagg.CodeConflict, op, "agent role is immutable", nil)
		}

		updates := map[string]interface{}{}
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return domainagg.NewError(domainagg.CodeValidation, op, "agent name cannot be empty", nil)
			}
			updates["name"] = name
		}
		if in.Description != nil {
			updates["description"] = strings.TrimSpace(*in.Description)
		}
		if in.Active != nil {
			updates["active"] = *in.Active
		}
		if in.Config != nil {
			config, err := encodeJSONConfig(in.Config)
			if err != nil {
				return domainagg.Wrap(domainagg.CodeValidation, op, err)
			}
			updates["config"] = config
		}
		if len(updates) > 0 {
			if err := s.agents.UpdateFields(dbc, agent.ID, updates); err != nil {
				return err
			}
		}

		fresh, err := s.agents.GetForAccount(dbc, rd.AccountID, agentID)
		if err != nil {
			return err
		}
		updated = fresh
		return nil
	})
	if txErr != nil {
		return nil, serviceError(op, txErr)
	}
	return updated, nil
}

func (s *agentService) Delete(ctx context.Context, agentID uuid.UUID) error {
	const op = "Agent.Delete"

	rd, err := requireRequestData(ctx, op)
	if err != nil {
		return err
	}
	if agentID == uuid.Nil {
		return domainagg.NewError(domainagg.CodeValidation, op, "agent id is required", nil)
	}

	var docIDs []uuid.UUID
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}

		agent, err := s.agents.GetForAccount(dbc, rd.AccountID, agentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainagg.NewError(domainagg.CodeNotFound, op, "agent not found", nil)
			}
			return err
		}

		slotRefs, err := s.inboxes.CountResponseRefs(dbc, agent.ID)
		if err != nil {
			return err
		}
		rosterRefs, err := s.assignments.CountRefsForAgent(dbc, agent.ID)
		if err != nil {
			return err
		}
		if slotRefs+rosterRefs > 0 {
			return domainagg.NewError(domainagg.CodeConflict, op, "agent is assigned to an inbox pipeline", nil)
		}

		docs, err := s.documents.ListByAgent(dbc, agent.ID)
		if err != nil {
			return err
		}
		for _, doc := range docs {
			if err := s.documents.Delete(dbc, doc.ID); err != nil {
				return err
			}
			docIDs = append(docIDs, doc.ID)
		}
		return s.agents.Delete(dbc, agent.ID)
	})
	if txErr != nil {
		return serviceError(op, txErr)
	}

	// The rows are gone; indexed chunks are cleaned up best-effort. Stats
	// expose any drift a failure here leaves behind.
	if s.store != nil {
		for _, docID := range docIDs {
			if err := s.store.DeleteDocument(ctx, agentID, docID); err != nil {
				s.log.Warn("chunk cleanup failed after agent delete",
					"agent_id", agentID.String(), "document_id", docID.String(), "error", err)
			}
		}
	}
	s.log.Info("agent deleted", "agent_id", agentID.String(), "documents_removed", len(docIDs))
	return nil
}

// encodeJSONConfig marshals an arbitrary config object for a jsonb column,
// defaulting to the empty object.
func encodeJSONConfig(config map[string]any) (datatypes.JSON, error) {
	if config == nil {
		return datatypes.JSON([]byte(`{}`)), nil
	}
	raw, err := json.Marshal(config)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/replyhive/replyhive-backend/internal/data/repos"
	types "github.com/replyhive/replyhive-backend/internal/domain"
	domainagg "github.com/replyhive/replyhive-backend/internal/domain/aggregates"
	"github.com/replyhive/replyhive-backend/internal/pkg/dbctx"
	"github.com/replyhive/replyhive-backend/internal/platform/logger"
	"github.com/replyhive/replyhive-backend/internal/realtime/bus"
)

// InboxService owns inbox CRUD and fronts the pipeline aggregate for
// membership changes. Every successful mutation is announced on the event
// bus so listeners can refresh their view of the roster.
type InboxService interface {
	Create(ctx context.Context, in CreateInboxInput) (*types.Inbox, error)
	Get(ctx context.Context, inboxID uuid.UUID) (*types.Inbox, error)
	List(ctx context.Context) ([]*types.Inbox, error)
	Update(ctx context.Context, inboxID uuid.UUID, in UpdateInboxInput) (*types.Inbox, error)
	Delete(ctx context.Context, inboxID uuid.UUID) error

	AssignResponseAgent(ctx context.Context, inboxID uuid.UUID, in AssignResponseInput) (domainagg.ResponseSlotResult, error)
	RemoveResponseAgent(ctx context.Context, inboxID uuid.UUID) (domainagg.ResponseSlotResult, error)
	AddProcessingAgent(ctx context.Context, inboxID uuid.UUID, in AddProcessingInput) (domainagg.ProcessingMutationResult, error)
	UpdateProcessingAgent(ctx context.Context, inboxID, agentID uuid.UUID, in UpdateProcessingInput) (domainagg.ProcessingMutationResult, error)
	RemoveProcessingAgent(ctx context.Context, inboxID, agentID uuid.UUID) (domainagg.ProcessingMutationResult, error)
	ListPipeline(ctx context.Context, inboxID uuid.UUID) (domainagg.PipelineView, error)
}

type CreateInboxInput struct {
	Name    string `json:"name"`
	Channel string `json:"channel"`
}

type UpdateInboxInput struct {
	Name    *string `json:"name"`
	Channel *string `json:"channel"`
}

type AssignResponseInput struct {
	AgentID uuid.UUID      `json:"agent_id"`
	Config  map[string]any `json:"config"`
}

type AddProcessingInput struct {
	AgentID  uuid.UUID      `json:"agent_id"`
	Priority *int           `json:"priority"`
	Config   map[string]any `json:"config"`
}

type UpdateProcessingInput struct {
	Priority *int           `json:"priority"`
	Active   *bool          `json:"active"`
	Config   map[string]any `json:"config"`
}

type inboxService struct {
	db          *gorm.DB
	log         *logger.Logger
	inboxes     repos.InboxRepo
	assignments repos.InboxAgentAssignmentRepo
	pipeline    domainagg.PipelineAggregate
	events      bus.Bus
}

func NewInboxService(
	db *gorm.DB,
	log *logger.Logger,
	inboxes repos.InboxRepo,
	assignments repos.InboxAgentAssignmentRepo,
	pipeline domainagg.PipelineAggregate,
	events bus.Bus,
) InboxService {
	return &inboxService{
		db:          db,
		log:         log.With("service", "InboxService"),
		inboxes:     inboxes,
		assignments: assignments,
		pipeline:    pipeline,
		events:      events,
	}
}

func (s *inboxService) Create(ctx context.Context, in CreateInboxInput) (*types.Inbox, error) {
	const op = "Inbox.Create"

	rd, err := requireRequestData(ctx, op)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "inbox name is required", nil)
	}

	row := &types.Inbox{
		AccountID: rd.AccountID,
		Name:      name,
		Channel:   strings.TrimSpace(in.Channel),
	}
	var created *types.Inbox
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		out, err := s.inboxes.Create(dbctx.Context{Ctx: ctx, Tx: tx}, row)
		if err != nil {
			return err
		}
		created = out
		return nil
	})
	if txErr != nil {
		return nil, serviceError(op, txErr)
	}
	s.log.Info("inbox created", "inbox_id", created.ID.String())
	return created, nil
}

func (s *inboxService) Get(ctx context.Context, inboxID uuid.UUID) (*types.Inbox, error) {
	const op = "Inbox.Get"

	rd, err := requireRequestData(ctx, op)
	if err != nil {
		return nil, err
	}
	if inboxID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "inbox id is required", nil)
	}
	row, err := s.inboxes.GetForAccount(dbctx.Context{Ctx: ctx}, rd.AccountID, inboxID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainagg.NewError(domainagg.CodeNotFound, op, "inbox not found", nil)
		}
		return nil, serviceError(op, err)
	}
	return row, nil
}

func (s *inboxService) List(ctx context.Context) ([]*types.Inbox, error) {
	const op = "Inbox.List"

	rd, err := requireRequestData(ctx, op)
	if err != nil {
		return nil, err
	}
	rows, err := s.inboxes.ListByAccount(dbctx.Context{Ctx: ctx}, rd.AccountID)
	if err != nil {
		return nil, serviceError(op, err)
	}
	return rows, nil
}

func (s *inboxService) Update(ctx context.Context, inboxID uuid.UUID, in UpdateInboxInput) (*types.Inbox, error) {
	const op = "Inbox.Update"

	rd, err := requireRequestData(ctx, op)
	if err != nil {
		return nil, err
	}
	if inboxID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "inbox id is required", nil)
	}

	var updated *types.Inbox
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}

		row, err := s.inboxes.GetForAccount(dbc, rd.AccountID, inboxID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainagg.NewError(domainagg.CodeNotFound, op, "inbox not found", nil)
			}
			return err
		}

		updates := map[string]interface{}{}
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return domainagg.NewError(domainagg.CodeValidation, op, "inbox name cannot be empty", nil)
			}
			updates["name"] = name
		}
		if in.Channel != nil {
			updates["channel"] = strings.TrimSpace(*in.Channel)
		}
		if len(updates) > 0 {
			if err := s.inboxes.UpdateFields(dbc, row.ID, updates); err != nil {
				return err
			}
		}

		fresh, err := s.inboxes.GetForAccount(dbc, rd.AccountID, inboxID)
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

func (s *inboxService) Delete(ctx context.Context, inboxID uuid.UUID) error {
	const op = "Inbox.Delete"

	rd, err := requireRequestData(ctx, op)
	if err != nil {
		return err
	}
	if inboxID == uuid.Nil {
		return domainagg.NewError(domainagg.CodeValidation, op, "inbox id is required", nil)
	}

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}

		row, err := s.inboxes.GetForAccount(dbc, rd.AccountID, inboxID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainagg.NewError(domainagg.CodeNotFound, op, "inbox not found", nil)
			}
			return err
		}
		// The roster rows go with the inbox; the response slot lives on the
		// inbox row itself.
		if err := s.assignments.DeleteByInbox(dbc, row.ID); err != nil {
			return err
		}
		return s.inboxes.Delete(dbc, row.ID)
	})
	if txErr != nil {
		return serviceError(op, txErr)
	}
	s.log.Info("inbox deleted", "inbox_id", inboxID.String())
	return nil
}

func (s *inboxService) AssignResponseAgent(ctx context.Context, inboxID uuid.UUID, in AssignResponseInput) (domainagg.ResponseSlotResult, error) {
	const op = "Inbox.AssignResponseAgent"

	rd, err := requireRequestData(ctx, op)
	if err != nil {
		return domainagg.ResponseSlotResult{}, err
	}
	out, err := s.pipeline.AssignResponseAgent(ctx, domainagg.AssignResponseAgentInput{
		AccountID: rd.AccountID,
		InboxID:   inboxID,
		AgentID:   in.AgentID,
		Config:    in.Config,
	})
	if err != nil {
		return domainagg.ResponseSlotResult{}, serviceError(op, err)
	}
	s.publish(ctx, bus.EventResponseAssigned, rd.AccountID, inboxID, out.AgentID)
	return out, nil
}

func (s *inboxService) RemoveResponseAgent(ctx context.Context, inboxID uuid.UUID) (domainagg.ResponseSlotResult, error) {
	const op = "Inbox.RemoveResponseAgent"

	rd, err := requireRequestData(ctx, op)
	if err != nil {
		return domainagg.ResponseSlotResult{}, err
	}
	out, err := s.pipeline.RemoveResponseAgent(ctx, domainagg.RemoveResponseAgentInput{
		AccountID: rd.AccountID,
		InboxID:   inboxID,
	})
	if err != nil {
		return domainagg.ResponseSlotResult{}, serviceError(op, err)
	}
	s.publish(ctx, bus.EventResponseRemoved, rd.AccountID, inboxID, out.AgentID)
	return out, nil
}

func (s *inboxService) AddProcessingAgent(ctx context.Context, inboxID uuid.UUID, in AddProcessingInput) (domainagg.ProcessingMutationResult, error) {
	const op = "Inbox.AddProcessingAgent"

	rd, err := requireRequestData(ctx, op)
	if err != nil {
		return domainagg.ProcessingMutationResult{}, err
	}
	out, err := s.pipeline.AddProcessingAgent(ctx, domainagg.AddProcessingAgentInput{
		AccountID: rd.AccountID,
		InboxID:   inboxID,
		AgentID:   in.AgentID,
		Priority:  in.Priority,
		Config:    in.Config,
	})
	if err != nil {
		return domainagg.ProcessingMutationResult{}, serviceError(op, err)
	}
	s.publish(ctx, bus.EventProcessingAdded, rd.AccountID, inboxID, out.Assignment.AgentID)
	return out, nil
}

func (s *inboxService) UpdateProcessingAgent(ctx context.Context, inboxID, agentID uuid.UUID, in UpdateProcessingInput) (domainagg.ProcessingMutationResult, error) {
	const op = "Inbox.UpdateProcessingAgent"

	rd, err := requireRequestData(ctx, op)
	if err != nil {
		return domainagg.ProcessingMutationResult{}, err
	}
	out, err := s.pipeline.UpdateProcessingAgent(ctx, domainagg.UpdateProcessingAgentInput{
		AccountID: rd.AccountID,
		InboxID:   inboxID,
		AgentID:   agentID,
		Priority:  in.Priority,
		Active:    in.Active,
		Config:    in.Config,
	})
	if err != nil {
		return domainagg.ProcessingMutationResult{}, serviceError(op, err)
	}
	s.publish(ctx, bus.EventProcessingUpdated, rd.AccountID, inboxID, agentID)
	return out, nil
}

func (s *inboxService) RemoveProcessingAgent(ctx context.Context, inboxID, agentID uuid.UUID) (domainagg.ProcessingMutationResult, error) {
	const op = "Inbox.RemoveProcessingAgent"

	rd, err := requireRequestData(ctx, op)
	if err != nil {
		return domainagg.ProcessingMutationResult{}, err
	}
	out, err := s.pipeline.RemoveProcessingAgent(ctx, domainagg.RemoveProcessingAgentInput{
		AccountID: rd.AccountID,
		InboxID:   inboxID,
		AgentID:   agentID,
	})
	if err != nil {
		return domainagg.ProcessingMutationResult{}, serviceError(op, err)
	}
	s.publish(ctx, bus.EventProcessingRemoved, rd.AccountID, inboxID, agentID)
	return out, nil
}

func (s *inboxService) ListPipeline(ctx context.Context, inboxID uuid.UUID) (domainagg.PipelineView, error) {
	const op = "Inbox.ListPipeline"

	rd, err := requireRequestData(ctx, op)
	if err != nil {
		return domainagg.PipelineView{}, err
	}
	out, err := s.pipeline.ListAgents(ctx, domainagg.ListAgentsInput{
		AccountID: rd.AccountID,
		InboxID:   inboxID,
	})
	if err != nil {
		return domainagg.PipelineView{}, serviceError(op, err)
	}
	return out, nil
}

// publish is best-effort: a dead broker never fails the mutation that
// already committed.
func (s *inboxService) publish(ctx context.Context, evType bus.EventType, accountID, inboxID, agentID uuid.UUID) {
	if s.events == nil {
		return
	}
	ev := bus.Event{Type: evType, AccountID: accountID, InboxID: inboxID, AgentID: agentID}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Warn("pipeline event publish failed", "type", string(evType), "inbox_id", inboxID.String(), "error", err)
	}
}

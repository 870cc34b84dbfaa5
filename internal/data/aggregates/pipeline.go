package aggregates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/replyhive/replyhive-backend/internal/data/repos"
	types "github.com/replyhive/replyhive-backend/internal/domain"
	domainagg "github.com/replyhive/replyhive-backend/internal/domain/aggregates"
	"github.com/replyhive/replyhive-backend/internal/pkg/dbctx"
)

type PipelineAggregateDeps struct {
	Base BaseDeps

	Inboxes     repos.InboxRepo
	Assignments repos.InboxAgentAssignmentRepo
	Agents      repos.AgentRepo
}

type pipelineAggregate struct {
	deps PipelineAggregateDeps
}

func NewPipelineAggregate(deps PipelineAggregateDeps) domainagg.PipelineAggregate {
	deps.Base = deps.Base.withDefaults()
	return &pipelineAggregate{deps: deps}
}

func (a *pipelineAggregate) Contract() domainagg.Contract {
	return domainagg.PipelineAggregateContract
}

func (a *pipelineAggregate) AssignResponseAgent(ctx context.Context, in domainagg.AssignResponseAgentInput) (domainagg.ResponseSlotResult, error) {
	const op = "Inbox.Pipeline.AssignResponseAgent"
	var out domainagg.ResponseSlotResult
	if err := a.requireIDs(op, in.AccountID, in.InboxID); err != nil {
		return out, err
	}
	if in.AgentID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing agent_id", nil)
	}
	if err := a.requireRepos(op); err != nil {
		return out, err
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		ib, err := a.lockOwnedInbox(dbc, op, in.AccountID, in.InboxID)
		if err != nil {
			return err
		}

		ag, err := a.ownedAgent(dbc, op, in.AccountID, in.AgentID)
		if err != nil {
			return err
		}
		if _, ok := ag.AsResponse(); !ok {
			return ConflictError("role mismatch")
		}

		if _, err := a.deps.Assignments.GetByPair(dbc, in.InboxID, in.AgentID); err == nil {
			return ConflictError("already in processing pipeline")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var replaced *uuid.UUID
		if ib.ResponseAgentID != nil && *ib.ResponseAgentID != uuid.Nil && *ib.ResponseAgentID != in.AgentID {
			prev := *ib.ResponseAgentID
			replaced = &prev
		}

		assignedAt := time.Now().UTC()
		cfg := in.Config
		if cfg == nil {
			cfg = map[string]any{}
		}
		if err := a.deps.Inboxes.UpdateFields(dbc, ib.ID, map[string]interface{}{
			"response_agent_id":    in.AgentID,
			"response_assigned_at": assignedAt,
			"response_config":      encodeConfig(cfg),
		}); err != nil {
			return err
		}

		summary, err := a.summarize(dbc, in.InboxID, true)
		if err != nil {
			return err
		}

		out = domainagg.ResponseSlotResult{
			InboxID:         ib.ID,
			AgentID:         in.AgentID,
			AgentName:       ag.Name,
			AssignedAt:      assignedAt,
			Config:          cfg,
			ReplacedAgentID: replaced,
			Summary:         summary,
		}
		return nil
	})
	return out, err
}

func (a *pipelineAggregate) RemoveResponseAgent(ctx context.Context, in domainagg.RemoveResponseAgentInput) (domainagg.ResponseSlotResult, error) {
	const op = "Inbox.Pipeline.RemoveResponseAgent"
	var out domainagg.ResponseSlotResult
	if err := a.requireIDs(op, in.AccountID, in.InboxID); err != nil {
		return out, err
	}
	if err := a.requireRepos(op); err != nil {
		return out, err
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		ib, err := a.lockOwnedInbox(dbc, op, in.AccountID, in.InboxID)
		if err != nil {
			return err
		}
		if ib.ResponseAgentID == nil || *ib.ResponseAgentID == uuid.Nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, "no response agent assigned", nil)
		}

		removedID := *ib.ResponseAgentID
		var removedAt time.Time
		if ib.ResponseAssignedAt != nil {
			removedAt = *ib.ResponseAssignedAt
		}
		removedCfg := decodeConfig(ib.ResponseConfig)

		name := ""
		if ag, err := a.deps.Agents.GetByID(dbc, removedID); err == nil {
			name = ag.Name
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := a.deps.Inboxes.UpdateFields(dbc, ib.ID, map[string]interface{}{
			"response_agent_id":    nil,
			"response_assigned_at": nil,
			"response_config":      datatypes.JSON([]byte(`{}`)),
		}); err != nil {
			return err
		}

		summary, err := a.summarize(dbc, in.InboxID, false)
		if err != nil {
			return err
		}

		out = domainagg.ResponseSlotResult{
			InboxID:    ib.ID,
			AgentID:    removedID,
			AgentName:  name,
			AssignedAt: removedAt,
			Config:     removedCfg,
			Summary:    summary,
		}
		return nil
	})
	return out, err
}

func (a *pipelineAggregate) AddProcessingAgent(ctx context.Context, in domainagg.AddProcessingAgentInput) (domainagg.ProcessingMutationResult, error) {
	const op = "Inbox.Pipeline.AddProcessingAgent"
	var out domainagg.ProcessingMutationResult
	if err := a.requireIDs(op, in.AccountID, in.InboxID); err != nil {
		return out, err
	}
	if in.AgentID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing agent_id", nil)
	}
	priority := types.AssignmentPriorityDefault
	if in.Priority != nil {
		priority = *in.Priority
	}
	if err := requirePriority(op, priority); err != nil {
		return out, err
	}
	if err := a.requireRepos(op); err != nil {
		return out, err
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		ib, err := a.lockOwnedInbox(dbc, op, in.AccountID, in.InboxID)
		if err != nil {
			return err
		}

		ag, err := a.ownedAgent(dbc, op, in.AccountID, in.AgentID)
		if err != nil {
			return err
		}
		if _, ok := ag.AsProcessing(); !ok {
			return ConflictError("role mismatch")
		}

		if ib.ResponseAgentID != nil && *ib.ResponseAgentID == in.AgentID {
			return ConflictError("already assigned as response agent")
		}
		if _, err := a.deps.Assignments.GetByPair(dbc, in.InboxID, in.AgentID); err == nil {
			return ConflictError("already in processing pipeline")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		maxSeq, err := a.deps.Assignments.GetMaxSeq(dbc, in.InboxID)
		if err != nil {
			return err
		}

		assignedAt := time.Now().UTC()
		cfg := in.Config
		if cfg == nil {
			cfg = map[string]any{}
		}
		row := &types.InboxAgentAssignment{
			InboxID:    in.InboxID,
			AgentID:    in.AgentID,
			Priority:   priority,
			Seq:        maxSeq + 1,
			Active:     true,
			Config:     encodeConfig(cfg),
			AssignedAt: assignedAt,
		}
		if _, err := a.deps.Assignments.Create(dbc, row); err != nil {
			return err
		}

		summary, err := a.summarize(dbc, in.InboxID, ib.ResponseAgentID != nil && *ib.ResponseAgentID != uuid.Nil)
		if err != nil {
			return err
		}

		out = domainagg.ProcessingMutationResult{
			InboxID: ib.ID,
			Assignment: domainagg.ProcessingAssignmentView{
				AgentID:    in.AgentID,
				Name:       ag.Name,
				AgentType:  ag.Role.String(),
				Priority:   priority,
				IsActive:   true,
				AssignedAt: assignedAt,
				Config:     cfg,
			},
			Summary: summary,
		}
		return nil
	})
	return out, err
}

func (a *pipelineAggregate) UpdateProcessingAgent(ctx context.Context, in domainagg.UpdateProcessingAgentInput) (domainagg.ProcessingMutationResult, error) {
	const op = "Inbox.Pipeline.UpdateProcessingAgent"
	var out domainagg.ProcessingMutationResult
	if err := a.requireIDs(op, in.AccountID, in.InboxID); err != nil {
		return out, err
	}
	if in.AgentID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing agent_id", nil)
	}
	if in.Priority != nil {
		if err := requirePriority(op, *in.Priority); err != nil {
			return out, err
		}
	}
	if err := a.requireRepos(op); err != nil {
		return out, err
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		ib, err := a.lockOwnedInbox(dbc, op, in.AccountID, in.InboxID)
		if err != nil {
			return err
		}

		row, err := a.deps.Assignments.GetByPair(dbc, in.InboxID, in.AgentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("processing assignment not found: %s", in.AgentID.String()), nil)
			}
			return err
		}

		updates := map[string]interface{}{}
		if in.Priority != nil {
			updates["priority"] = *in.Priority
		}
		if in.Active != nil {
			updates["active"] = *in.Active
		}
		if in.Config != nil {
			merged := decodeConfig(row.Config)
			for k, v := range in.Config {
				merged[k] = v
			}
			updates["config"] = encodeConfig(merged)
		}
		if len(updates) > 0 {
			if err := a.deps.Assignments.UpdateFields(dbc, row.ID, updates); err != nil {
				return err
			}
		}

		row, err = a.deps.Assignments.GetByPair(dbc, in.InboxID, in.AgentID)
		if err != nil {
			return err
		}
		ag, err := a.ownedAgent(dbc, op, in.AccountID, in.AgentID)
		if err != nil {
			return err
		}

		summary, err := a.summarize(dbc, in.InboxID, ib.ResponseAgentID != nil && *ib.ResponseAgentID != uuid.Nil)
		if err != nil {
			return err
		}

		out = domainagg.ProcessingMutationResult{
			InboxID:    ib.ID,
			Assignment: assignmentView(row, ag),
			Summary:    summary,
		}
		return nil
	})
	return out, err
}

func (a *pipelineAggregate) RemoveProcessingAgent(ctx context.Context, in domainagg.RemoveProcessingAgentInput) (domainagg.ProcessingMutationResult, error) {
	const op = "Inbox.Pipeline.RemoveProcessingAgent"
	var out domainagg.ProcessingMutationResult
	if err := a.requireIDs(op, in.AccountID, in.InboxID); err != nil {
		return out, err
	}
	if in.AgentID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing agent_id", nil)
	}
	if err := a.requireRepos(op); err != nil {
		return out, err
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		ib, err := a.lockOwnedInbox(dbc, op, in.AccountID, in.InboxID)
		if err != nil {
			return err
		}

		row, err := a.deps.Assignments.GetByPair(dbc, in.InboxID, in.AgentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("processing assignment not found: %s", in.AgentID.String()), nil)
			}
			return err
		}

		name := ""
		agentType := types.AgentRoleProcessing.String()
		if ag, err := a.deps.Agents.GetByID(dbc, in.AgentID); err == nil {
			name = ag.Name
			agentType = ag.Role.String()
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		n, err := a.deps.Assignments.DeleteByPair(dbc, in.InboxID, in.AgentID)
		if err != nil {
			return err
		}
		if n == 0 {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("processing assignment not found: %s", in.AgentID.String()), nil)
		}

		summary, err := a.summarize(dbc, in.InboxID, ib.ResponseAgentID != nil && *ib.ResponseAgentID != uuid.Nil)
		if err != nil {
			return err
		}

		out = domainagg.ProcessingMutationResult{
			InboxID: ib.ID,
			Assignment: domainagg.ProcessingAssignmentView{
				AgentID:    in.AgentID,
				Name:       name,
				AgentType:  agentType,
				Priority:   row.Priority,
				IsActive:   row.Active,
				AssignedAt: row.AssignedAt,
				Config:     decodeConfig(row.Config),
			},
			Summary: summary,
		}
		return nil
	})
	return out, err
}

func (a *pipelineAggregate) ListAgents(ctx context.Context, in domainagg.ListAgentsInput) (domainagg.PipelineView, error) {
	const op = "Inbox.Pipeline.ListAgents"
	var out domainagg.PipelineView
	if err := a.requireIDs(op, in.AccountID, in.InboxID); err != nil {
		return out, err
	}
	if err := a.requireRepos(op); err != nil {
		return out, err
	}

	// Read-only snapshot: one transaction, no row lock.
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		ib, err := a.deps.Inboxes.GetForAccount(dbc, in.AccountID, in.InboxID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("inbox not found: %s", in.InboxID.String()), nil)
			}
			return err
		}

		rows, err := a.deps.Assignments.ListByInbox(dbc, in.InboxID)
		if err != nil {
			return err
		}

		ids := make([]uuid.UUID, 0, len(rows)+1)
		for _, r := range rows {
			ids = append(ids, r.AgentID)
		}
		hasResponse := ib.ResponseAgentID != nil && *ib.ResponseAgentID != uuid.Nil
		if hasResponse {
			ids = append(ids, *ib.ResponseAgentID)
		}
		ags, err := a.deps.Agents.ListByIDs(dbc, ids)
		if err != nil {
			return err
		}
		byID := make(map[uuid.UUID]*types.Agent, len(ags))
		for _, ag := range ags {
			byID[ag.ID] = ag
		}

		views := make([]domainagg.ProcessingAssignmentView, 0, len(rows))
		for _, r := range rows {
			views = append(views, assignmentView(r, byID[r.AgentID]))
		}

		var slot *domainagg.ResponseSlotView
		if hasResponse {
			v := domainagg.ResponseSlotView{
				AgentID:   *ib.ResponseAgentID,
				AgentType: types.AgentRoleResponse.String(),
				Config:    decodeConfig(ib.ResponseConfig),
			}
			if ib.ResponseAssignedAt != nil {
				v.AssignedAt = *ib.ResponseAssignedAt
			}
			if ag, ok := byID[*ib.ResponseAgentID]; ok {
				v.Name = ag.Name
				v.AgentType = ag.Role.String()
				v.IsActive = ag.Active
			}
			slot = &v
		}

		out = domainagg.PipelineView{
			InboxID:          ib.ID,
			ResponseAgent:    slot,
			ProcessingAgents: views,
			Summary:          summarizeRows(rows, hasResponse),
		}
		return nil
	})
	return out, err
}

func (a *pipelineAggregate) requireIDs(op string, accountID, inboxID uuid.UUID) error {
	if accountID == uuid.Nil {
		return domainagg.NewError(domainagg.CodeValidation, op, "missing account_id", nil)
	}
	if inboxID == uuid.Nil {
		return domainagg.NewError(domainagg.CodeValidation, op, "missing inbox_id", nil)
	}
	return nil
}

func (a *pipelineAggregate) requireRepos(op string) error {
	if a.deps.Inboxes == nil || a.deps.Assignments == nil || a.deps.Agents == nil {
		return domainagg.NewError(domainagg.CodeInternal, op, "pipeline aggregate repos not configured", nil)
	}
	return nil
}

// lockOwnedInbox takes the inbox row FOR UPDATE and verifies ownership.
// Every pipeline write serializes on this lock so invariant checks see a
// stable roster.
func (a *pipelineAggregate) lockOwnedInbox(dbc dbctx.Context, op string, accountID, inboxID uuid.UUID) (*types.Inbox, error) {
	ib, err := a.deps.Inboxes.LockByID(dbc, inboxID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("inbox not found: %s", inboxID.String()), nil)
		}
		return nil, err
	}
	if ib == nil || ib.AccountID != accountID {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("inbox not found: %s", inboxID.String()), nil)
	}
	return ib, nil
}

func (a *pipelineAggregate) ownedAgent(dbc dbctx.Context, op string, accountID, agentID uuid.UUID) (*types.Agent, error) {
	ag, err := a.deps.Agents.GetForAccount(dbc, accountID, agentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("agent not found: %s", agentID.String()), nil)
		}
		return nil, err
	}
	return ag, nil
}

func (a *pipelineAggregate) summarize(dbc dbctx.Context, inboxID uuid.UUID, hasResponse bool) (domainagg.PipelineSummary, error) {
	rows, err := a.deps.Assignments.ListByInbox(dbc, inboxID)
	if err != nil {
		return domainagg.PipelineSummary{}, err
	}
	return summarizeRows(rows, hasResponse), nil
}

func summarizeRows(rows []*types.InboxAgentAssignment, hasResponse bool) domainagg.PipelineSummary {
	active := 0
	for _, r := range rows {
		if r.Active {
			active++
		}
	}
	s := domainagg.PipelineSummary{
		ProcessingCount:       len(rows),
		ActiveProcessingCount: active,
		HasResponseAgent:      hasResponse,
		TotalAgents:           len(rows),
		ActiveAgents:          active,
	}
	if hasResponse {
		s.TotalAgents++
		s.ActiveAgents++
	}
	return s
}

func assignmentView(row *types.InboxAgentAssignment, ag *types.Agent) domainagg.ProcessingAssignmentView {
	v := domainagg.ProcessingAssignmentView{
		AgentID:    row.AgentID,
		AgentType:  types.AgentRoleProcessing.String(),
		Priority:   row.Priority,
		IsActive:   row.Active,
		AssignedAt: row.AssignedAt,
		Config:     decodeConfig(row.Config),
	}
	if ag != nil {
		v.Name = ag.Name
		v.AgentType = ag.Role.String()
	}
	return v
}

func requirePriority(op string, p int) error {
	if !types.AssignmentPriorityValid(p) {
		return domainagg.NewError(
			domainagg.CodeValidation,
			op,
			fmt.Sprintf("priority must be between %d and %d", types.AssignmentPriorityMin, types.AssignmentPriorityMax),
			nil,
		)
	}
	return nil
}

func decodeConfig(raw datatypes.JSON) map[string]any {
	out := map[string]any{}
	if len(raw) == 0 {
		return out
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]any{}
	}
	return out
}

func encodeConfig(m map[string]any) datatypes.JSON {
	if m == nil {
		m = map[string]any{}
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return datatypes.JSON([]byte(`{}`))
	}
	return datatypes.JSON(raw)
}

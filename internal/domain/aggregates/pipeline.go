package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"
)

var PipelineAggregateContract = Contract{
	Name:             "Inbox.PipelineAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes:            "Owns the response slot and the ordered processing roster of one inbox; every write locks the inbox row.",
}

// PipelineAggregate owns inbox pipeline membership invariants:
// one optional response agent in the slot, processing agents unique per inbox,
// roster always readable in ascending priority, priorities inside [1,999],
// and role exclusivity re-checked on every mutation.
//
// Write method failures should return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodeConflict, CodeInvariantViolation, CodeRetryable, CodeInternal.
type PipelineAggregate interface {
	Aggregate

	// AssignResponseAgent fills the response slot, replacing any current occupant.
	AssignResponseAgent(ctx context.Context, in AssignResponseAgentInput) (ResponseSlotResult, error)

	// RemoveResponseAgent empties the response slot and reports what it held.
	RemoveResponseAgent(ctx context.Context, in RemoveResponseAgentInput) (ResponseSlotResult, error)

	// AddProcessingAgent appends an agent to the processing roster at the given priority.
	AddProcessingAgent(ctx context.Context, in AddProcessingAgentInput) (ProcessingMutationResult, error)

	// UpdateProcessingAgent changes priority/active/config of an existing roster entry.
	UpdateProcessingAgent(ctx context.Context, in UpdateProcessingAgentInput) (ProcessingMutationResult, error)

	// RemoveProcessingAgent deletes one roster entry.
	RemoveProcessingAgent(ctx context.Context, in RemoveProcessingAgentInput) (ProcessingMutationResult, error)

	// ListAgents returns the full pipeline as one consistent snapshot.
	ListAgents(ctx context.Context, in ListAgentsInput) (PipelineView, error)
}

type AssignResponseAgentInput struct {
	AccountID uuid.UUID
	InboxID   uuid.UUID
	AgentID   uuid.UUID
	Config    map[string]any
}

type RemoveResponseAgentInput struct {
	AccountID uuid.UUID
	InboxID   uuid.UUID
}

type AddProcessingAgentInput struct {
	AccountID uuid.UUID
	InboxID   uuid.UUID
	AgentID   uuid.UUID
	// Priority defaults to the middle of the allowed range when nil.
	Priority *int
	Config   map[string]any
}

type UpdateProcessingAgentInput struct {
	AccountID uuid.UUID
	InboxID   uuid.UUID
	AgentID   uuid.UUID
	Priority  *int
	Active    *bool
	// Config keys are shallow-merged over the stored object when non-nil.
	Config map[string]any
}

type RemoveProcessingAgentInput struct {
	AccountID uuid.UUID
	InboxID   uuid.UUID
	AgentID   uuid.UUID
}

type ListAgentsInput struct {
	AccountID uuid.UUID
	InboxID   uuid.UUID
}

// ResponseSlotResult reports a slot mutation: the agent now (or formerly)
// in the slot, and the roster summary after the write.
type ResponseSlotResult struct {
	InboxID         uuid.UUID
	AgentID         uuid.UUID
	AgentName       string
	AssignedAt      time.Time
	Config          map[string]any
	ReplacedAgentID *uuid.UUID
	Summary         PipelineSummary
}

// ProcessingAssignmentView is one roster entry joined with its agent record.
type ProcessingAssignmentView struct {
	AgentID    uuid.UUID      `json:"agent_id"`
	Name       string         `json:"name"`
	AgentType  string         `json:"agent_type"`
	Priority   int            `json:"priority"`
	IsActive   bool           `json:"is_active"`
	AssignedAt time.Time      `json:"assigned_at"`
	Config     map[string]any `json:"config,omitempty"`
}

type ProcessingMutationResult struct {
	InboxID    uuid.UUID
	Assignment ProcessingAssignmentView
	Summary    PipelineSummary
}

// ResponseSlotView is the slot as seen by roster reads.
type ResponseSlotView struct {
	AgentID    uuid.UUID      `json:"agent_id"`
	Name       string         `json:"name"`
	AgentType  string         `json:"agent_type"`
	IsActive   bool           `json:"is_active"`
	AssignedAt time.Time      `json:"assigned_at"`
	Config     map[string]any `json:"config,omitempty"`
}

// PipelineSummary counts the whole pipeline: processing entries plus the
// slot occupant when present. ActiveAgents counts active processing entries
// plus an occupied slot.
type PipelineSummary struct {
	TotalAgents           int  `json:"total_agents"`
	ActiveAgents          int  `json:"active_agents"`
	HasResponseAgent      bool `json:"has_response_agent"`
	ProcessingCount       int  `json:"processing_count"`
	ActiveProcessingCount int  `json:"active_processing_count"`
}

type PipelineView struct {
	InboxID          uuid.UUID                  `json:"inbox_id"`
	ResponseAgent    *ResponseSlotView          `json:"response_agent"`
	ProcessingAgents []ProcessingAssignmentView `json:"processing_agents"`
	Summary          PipelineSummary            `json:"summary"`
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainagg "github.com/replyhive/replyhive-backend/internal/domain/aggregates"
	"github.com/replyhive/replyhive-backend/internal/http/response"
	"github.com/replyhive/replyhive-backend/internal/services"
)

// PipelineHandler exposes the per-inbox agent pipeline: the single response
// slot plus the priority-ordered processing roster.
type PipelineHandler struct {
	inboxes services.InboxService
}

func NewPipelineHandler(inboxes services.InboxService) *PipelineHandler {
	return &PipelineHandler{inboxes: inboxes}
}

// GET /api/inboxes/:inboxId/agents
func (h *PipelineHandler) ListAgents(c *gin.Context) {
	inboxID, err := uuid.Parse(c.Param("inboxId"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_inbox_id", err)
		return
	}
	view, err := h.inboxes.ListPipeline(c.Request.Context(), inboxID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, view)
}

// PUT /api/inboxes/:inboxId/agents/response
func (h *PipelineHandler) AssignResponseAgent(c *gin.Context) {
	inboxID, err := uuid.Parse(c.Param("inboxId"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_inbox_id", err)
		return
	}
	var req services.AssignResponseInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	result, err := h.inboxes.AssignResponseAgent(c.Request.Context(), inboxID, req)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, slotPayload(result, "agent_id"))
}

// DELETE /api/inboxes/:inboxId/agents/response
func (h *PipelineHandler) RemoveResponseAgent(c *gin.Context) {
	inboxID, err := uuid.Parse(c.Param("inboxId"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_inbox_id", err)
		return
	}
	result, err := h.inboxes.RemoveResponseAgent(c.Request.Context(), inboxID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, slotPayload(result, "removed_agent_id"))
}

// POST /api/inboxes/:inboxId/agents/processing
func (h *PipelineHandler) AddProcessingAgent(c *gin.Context) {
	inboxID, err := uuid.Parse(c.Param("inboxId"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_inbox_id", err)
		return
	}
	var req services.AddProcessingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	result, err := h.inboxes.AddProcessingAgent(c.Request.Context(), inboxID, req)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rosterPayload(result))
}

// PATCH /api/inboxes/:inboxId/agents/processing/:agentId
func (h *PipelineHandler) UpdateProcessingAgent(c *gin.Context) {
	inboxID, agentID, ok := h.pipelineIDs(c)
	if !ok {
		return
	}
	var req services.UpdateProcessingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	result, err := h.inboxes.UpdateProcessingAgent(c.Request.Context(), inboxID, agentID, req)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, rosterPayload(result))
}

// DELETE /api/inboxes/:inboxId/agents/processing/:agentId
func (h *PipelineHandler) RemoveProcessingAgent(c *gin.Context) {
	inboxID, agentID, ok := h.pipelineIDs(c)
	if !ok {
		return
	}
	result, err := h.inboxes.RemoveProcessingAgent(c.Request.Context(), inboxID, agentID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"inbox_id":         result.InboxID,
		"removed_agent_id": result.Assignment.AgentID,
		"pipeline_summary": result.Summary,
	})
}

func (h *PipelineHandler) pipelineIDs(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	inboxID, err := uuid.Parse(c.Param("inboxId"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_inbox_id", err)
		return uuid.Nil, uuid.Nil, false
	}
	agentID, err := uuid.Parse(c.Param("agentId"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_agent_id", err)
		return uuid.Nil, uuid.Nil, false
	}
	return inboxID, agentID, true
}

func slotPayload(r domainagg.ResponseSlotResult, agentKey string) gin.H {
	payload := gin.H{
		"inbox_id":         r.InboxID,
		agentKey:           r.AgentID,
		"agent_name":       r.AgentName,
		"pipeline_summary": r.Summary,
	}
	if !r.AssignedAt.IsZero() {
		payload["assigned_at"] = r.AssignedAt
	}
	if len(r.Config) > 0 {
		payload["config"] = r.Config
	}
	if r.ReplacedAgentID != nil {
		payload["replaced_agent_id"] = *r.ReplacedAgentID
	}
	return payload
}

func rosterPayload(r domainagg.ProcessingMutationResult) gin.H {
	return gin.H{
		"inbox_id":         r.InboxID,
		"assignment":       r.Assignment,
		"pipeline_summary": r.Summary,
	}
}

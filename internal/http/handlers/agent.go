package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/replyhive/replyhive-backend/internal/http/response"
	"github.com/replyhive/replyhive-backend/internal/services"
)

type AgentHandler struct {
	agents services.AgentService
}

func NewAgentHandler(agents services.AgentService) *AgentHandler {
	return &AgentHandler{agents: agents}
}

// POST /api/agents
func (h *AgentHandler) Create(c *gin.Context) {
	var req services.CreateAgentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	agent, err := h.agents.Create(c.Request.Context(), req)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"agent": agent})
}

// GET /api/agents
func (h *AgentHandler) List(c *gin.Context) {
	agents, err := h.agents.List(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"agents": agents, "total": len(agents)})
}

// GET /api/agents/:agentId
func (h *AgentHandler) Get(c *gin.Context) {
	agentID, err := uuid.Parse(c.Param("agentId"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_agent_id", err)
		return
	}
	agent, err := h.agents.Get(c.Request.Context(), agentID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"agent": agent})
}

// PATCH /api/agents/:agentId
func (h *AgentHandler) Update(c *gin.Context) {
	agentID, err := uuid.Parse(c.Param("agentId"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_agent_id", err)
		return
	}
	var req services.UpdateAgentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	agent, err := h.agents.Update(c.Request.Context(), agentID, req)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"agent": agent})
}

// DELETE /api/agents/:agentId
func (h *AgentHandler) Delete(c *gin.Context) {
	agentID, err := uuid.Parse(c.Param("agentId"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_agent_id", err)
		return
	}
	if err := h.agents.Delete(c.Request.Context(), agentID); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

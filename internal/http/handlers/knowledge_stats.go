package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/replyhive/replyhive-backend/internal/http/response"
	"github.com/replyhive/replyhive-backend/internal/services"
)

type KnowledgeStatsHandler struct {
	stats services.KnowledgeStatsService
}

func NewKnowledgeStatsHandler(stats services.KnowledgeStatsService) *KnowledgeStatsHandler {
	return &KnowledgeStatsHandler{stats: stats}
}

// GET /api/agents/:agentId/knowledge/stats
func (h *KnowledgeStatsHandler) Stats(c *gin.Context) {
	agentID, err := uuid.Parse(c.Param("agentId"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_agent_id", err)
		return
	}
	stats, err := h.stats.Stats(c.Request.Context(), agentID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, stats)
}

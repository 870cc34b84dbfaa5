package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/replyhive/replyhive-backend/internal/http/response"
	"github.com/replyhive/replyhive-backend/internal/services"
)

type SearchHandler struct {
	search services.SearchService
}

func NewSearchHandler(search services.SearchService) *SearchHandler {
	return &SearchHandler{search: search}
}

// GET /api/agents/:agentId/search?q=...&limit=...
//
// A missing or non-numeric limit falls through as zero and the service
// applies its default.
func (h *SearchHandler) Search(c *gin.Context) {
	agentID, err := uuid.Parse(c.Param("agentId"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_agent_id", err)
		return
	}
	query := c.Query("q")
	limit, _ := strconv.Atoi(c.Query("limit"))

	out, err := h.search.Search(c.Request.Context(), agentID, query, limit)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, out)
}

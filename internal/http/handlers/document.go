package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/replyhive/replyhive-backend/internal/http/response"
	"github.com/replyhive/replyhive-backend/internal/services"
)

type DocumentHandler struct {
	documents services.DocumentService
}

func NewDocumentHandler(documents services.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

// POST /api/agents/:agentId/documents
func (h *DocumentHandler) Add(c *gin.Context) {
	agentID, err := uuid.Parse(c.Param("agentId"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_agent_id", err)
		return
	}
	var req services.AddDocumentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	doc, err := h.documents.Add(c.Request.Context(), agentID, req)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"document": doc})
}

// GET /api/agents/:agentId/documents
func (h *DocumentHandler) List(c *gin.Context) {
	agentID, err := uuid.Parse(c.Param("agentId"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_agent_id", err)
		return
	}
	docs, err := h.documents.List(c.Request.Context(), agentID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"documents": docs, "total": len(docs)})
}

// DELETE /api/agents/:agentId/documents/:documentId
func (h *DocumentHandler) Delete(c *gin.Context) {
	agentID, err := uuid.Parse(c.Param("agentId"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_agent_id", err)
		return
	}
	documentID, err := uuid.Parse(c.Param("documentId"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_document_id", err)
		return
	}
	if err := h.documents.Delete(c.Request.Context(), agentID, documentID); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

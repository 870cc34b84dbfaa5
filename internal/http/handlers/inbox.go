package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/replyhive/replyhive-backend/internal/http/response"
	"github.com/replyhive/replyhive-backend/internal/services"
)

type InboxHandler struct {
	inboxes services.InboxService
}

func NewInboxHandler(inboxes services.InboxService) *InboxHandler {
	return &InboxHandler{inboxes: inboxes}
}

// POST /api/inboxes
func (h *InboxHandler) Create(c *gin.Context) {
	var req services.CreateInboxInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	inbox, err := h.inboxes.Create(c.Request.Context(), req)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"inbox": inbox})
}

// GET /api/inboxes
func (h *InboxHandler) List(c *gin.Context) {
	inboxes, err := h.inboxes.List(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"inboxes": inboxes, "total": len(inboxes)})
}

// GET /api/inboxes/:inboxId
func (h *InboxHandler) Get(c *gin.Context) {
	inboxID, err := uuid.Parse(c.Param("inboxId"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_inbox_id", err)
		return
	}
	inbox, err := h.inboxes.Get(c.Request.Context(), inboxID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"inbox": inbox})
}

// PATCH /api/inboxes/:inboxId
func (h *InboxHandler) Update(c *gin.Context) {
	inboxID, err := uuid.Parse(c.Param("inboxId"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_inbox_id", err)
		return
	}
	var req services.UpdateInboxInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	inbox, err := h.inboxes.Update(c.Request.Context(), inboxID, req)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"inbox": inbox})
}

// DELETE /api/inboxes/:inboxId
func (h *InboxHandler) Delete(c *gin.Context) {
	inboxID, err := uuid.Parse(c.Param("inboxId"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_inbox_id", err)
		return
	}
	if err := h.inboxes.Delete(c.Request.Context(), inboxID); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

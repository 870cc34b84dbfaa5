package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/replyhive/replyhive-backend/internal/http/response"
	"github.com/replyhive/replyhive-backend/internal/services"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// POST /api/register
func (ah *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	result, err := ah.authService.Register(c.Request.Context(), req)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	ah.respondTokens(c, result)
}

// POST /api/login
func (ah *AuthHandler) Login(c *gin.Context) {
	var req services.LoginInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	result, err := ah.authService.Login(c.Request.Context(), req)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	ah.respondTokens(c, result)
}

// POST /api/refresh
func (ah *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	result, err := ah.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	ah.respondTokens(c, result)
}

// POST /api/logout
func (ah *AuthHandler) Logout(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := ah.authService.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

func (ah *AuthHandler) respondTokens(c *gin.Context, result *services.AuthResult) {
	expiresIn := int(ah.authService.AccessTTL().Seconds())
	response.RespondOK(c, gin.H{
		"account":       result.Account,
		"access_token":  result.AccessToken,
		"refresh_token": result.RefreshToken,
		"expires_in":    expiresIn,
	})
}

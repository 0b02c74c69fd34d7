package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vaultmedia/vaultmedia-backend/internal/http/response"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/apierr"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/dbctx"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/logger"
	"github.com/vaultmedia/vaultmedia-backend/internal/services"
)

type AuthHandler struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthHandler(baseLog *logger.Logger, authService services.AuthService) *AuthHandler {
	return &AuthHandler{
		log:         baseLog.With("handler", "AuthHandler"),
		authService: authService,
	}
}

// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var creds services.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeValidation, fmt.Errorf("invalid request body"))
		return
	}
	user, err := h.authService.Register(dbctx.Context{Ctx: c.Request.Context()}, creds)
	if err != nil {
		h.log.Warn("Register failed", "error", err)
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeValidation, fmt.Errorf("invalid request body"))
		return
	}
	pair, err := h.authService.Login(dbctx.Context{Ctx: c.Request.Context()}, req.Email, req.Password)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, pair)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeValidation, fmt.Errorf("refresh_token is required"))
		return
	}
	pair, err := h.authService.Refresh(dbctx.Context{Ctx: c.Request.Context()}, req.RefreshToken)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, pair)
}

// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeValidation, fmt.Errorf("refresh_token is required"))
		return
	}
	if err := h.authService.Logout(dbctx.Context{Ctx: c.Request.Context()}, req.RefreshToken); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vaultmedia/vaultmedia-backend/internal/http/middleware"
	"github.com/vaultmedia/vaultmedia-backend/internal/http/response"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/apierr"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/dbctx"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/logger"
	"github.com/vaultmedia/vaultmedia-backend/internal/services"
)

type SettingsHandler struct {
	log             *logger.Logger
	settingsService services.SettingsService
}

func NewSettingsHandler(baseLog *logger.Logger, settingsService services.SettingsService) *SettingsHandler {
	return &SettingsHandler{
		log:             baseLog.With("handler", "SettingsHandler"),
		settingsService: settingsService,
	}
}

type setSettingRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// PUT /api/settings
func (h *SettingsHandler) Set(c *gin.Context) {
	user := middleware.CurrentUser(c)
	var req setSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeValidation, fmt.Errorf("invalid request body"))
		return
	}
	if err := h.settingsService.Set(dbctx.Context{Ctx: c.Request.Context()}, user, req.Key, req.Value); err != nil {
		h.log.Warn("Set setting failed", "error", err, "key", req.Key, "actor_id", user.ID)
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// GET /api/settings
func (h *SettingsHandler) List(c *gin.Context) {
	user := middleware.CurrentUser(c)
	views, err := h.settingsService.List(dbctx.Context{Ctx: c.Request.Context()}, user)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"settings": views})
}

// GET /api/settings/:key
func (h *SettingsHandler) Get(c *gin.Context) {
	user := middleware.CurrentUser(c)
	view, err := h.settingsService.Get(dbctx.Context{Ctx: c.Request.Context()}, user, c.Param("key"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, view)
}

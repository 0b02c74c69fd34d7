package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	assetsrepo "github.com/vaultmedia/vaultmedia-backend/internal/data/repos/assets"
	"github.com/vaultmedia/vaultmedia-backend/internal/domain"
	"github.com/vaultmedia/vaultmedia-backend/internal/http/middleware"
	"github.com/vaultmedia/vaultmedia-backend/internal/http/response"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/apierr"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/dbctx"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/logger"
	"github.com/vaultmedia/vaultmedia-backend/internal/services"
)

type AssetHandler struct {
	log          *logger.Logger
	assetService services.AssetService
	adminService services.AdminService
}

func NewAssetHandler(baseLog *logger.Logger, assetService services.AssetService, adminService services.AdminService) *AssetHandler {
	return &AssetHandler{
		log:          baseLog.With("handler", "AssetHandler"),
		assetService: assetService,
		adminService: adminService,
	}
}

func assetIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil || id == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeValidation, fmt.Errorf("invalid asset id"))
		return uuid.Nil, false
	}
	return id, true
}

// GET /api/assets
func (h *AssetHandler) List(c *gin.Context) {
	user := middleware.CurrentUser(c)
	filter := assetsrepo.ListFilter{
		Type:            domain.AssetType(c.Query("type")),
		Status:          domain.ProcessingStatus(c.Query("status")),
		IncludeArchived: c.Query("include_archived") == "true",
	}
	if v, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.Limit = v
	}
	if v, err := strconv.Atoi(c.DefaultQuery("offset", "0")); err == nil {
		filter.Offset = v
	}
	assets, err := h.assetService.List(dbctx.Context{Ctx: c.Request.Context()}, user.ID, filter)
	if err != nil {
		h.log.Error("List assets failed", "error", err, "user_id", user.ID)
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"assets": assets})
}

// GET /api/assets/:id
func (h *AssetHandler) Get(c *gin.Context) {
	user := middleware.CurrentUser(c)
	assetID, ok := assetIDParam(c)
	if !ok {
		return
	}
	asset, err := h.assetService.Get(dbctx.Context{Ctx: c.Request.Context()}, user.ID, user.Role, assetID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, asset)
}

// GET /api/assets/:id/variants
func (h *AssetHandler) Variants(c *gin.Context) {
	user := middleware.CurrentUser(c)
	assetID, ok := assetIDParam(c)
	if !ok {
		return
	}
	variants, err := h.assetService.Variants(dbctx.Context{Ctx: c.Request.Context()}, user.ID, user.Role, assetID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"variants": variants})
}

// GET /api/assets/:id/download-url
func (h *AssetHandler) DownloadURL(c *gin.Context) {
	user := middleware.CurrentUser(c)
	assetID, ok := assetIDParam(c)
	if !ok {
		return
	}
	grant, err := h.assetService.DownloadURL(dbctx.Context{Ctx: c.Request.Context()}, user, assetID, c.Query("filename"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, grant)
}

// POST /api/assets/:id/view
func (h *AssetHandler) RecordView(c *gin.Context) {
	user := middleware.CurrentUser(c)
	assetID, ok := assetIDParam(c)
	if !ok {
		return
	}
	if err := h.assetService.RecordView(dbctx.Context{Ctx: c.Request.Context()}, user.ID, assetID); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// POST /api/assets/:id/archive
func (h *AssetHandler) Archive(c *gin.Context) {
	user := middleware.CurrentUser(c)
	assetID, ok := assetIDParam(c)
	if !ok {
		return
	}
	if err := h.assetService.Archive(dbctx.Context{Ctx: c.Request.Context()}, user.ID, assetID); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// POST /api/assets/:id/retry-processing
func (h *AssetHandler) RetryProcessing(c *gin.Context) {
	user := middleware.CurrentUser(c)
	assetID, ok := assetIDParam(c)
	if !ok {
		return
	}
	if err := h.adminService.RetryProcessing(dbctx.Context{Ctx: c.Request.Context()}, user, assetID); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

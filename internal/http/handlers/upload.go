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

type UploadHandler struct {
	log           *logger.Logger
	uploadService services.UploadService
}

func NewUploadHandler(baseLog *logger.Logger, uploadService services.UploadService) *UploadHandler {
	return &UploadHandler{
		log:           baseLog.With("handler", "UploadHandler"),
		uploadService: uploadService,
	}
}

// POST /api/uploads/prepare
func (h *UploadHandler) Prepare(c *gin.Context) {
	user := middleware.CurrentUser(c)
	var req services.PrepareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeValidation, fmt.Errorf("invalid request body"))
		return
	}
	prepared, err := h.uploadService.PrepareUpload(dbctx.Context{Ctx: c.Request.Context()}, user.ID, req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, prepared)
}

type prepareBatchRequest struct {
	Files []services.PrepareRequest `json:"files"`
}

// POST /api/uploads/prepare-batch
func (h *UploadHandler) PrepareBatch(c *gin.Context) {
	user := middleware.CurrentUser(c)
	var req prepareBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeValidation, fmt.Errorf("invalid request body"))
		return
	}
	batch, err := h.uploadService.PrepareBatch(dbctx.Context{Ctx: c.Request.Context()}, user.ID, req.Files)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, batch)
}

// POST /api/uploads/complete
func (h *UploadHandler) Complete(c *gin.Context) {
	user := middleware.CurrentUser(c)
	var req services.CompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeValidation, fmt.Errorf("invalid request body"))
		return
	}
	asset, err := h.uploadService.CompleteUpload(dbctx.Context{Ctx: c.Request.Context()}, user.ID, req)
	if err != nil {
		h.log.Warn("CompleteUpload failed", "error", err, "uploader_id", user.ID)
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, asset)
}

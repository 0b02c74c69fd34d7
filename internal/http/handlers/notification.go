package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vaultmedia/vaultmedia-backend/internal/http/middleware"
	"github.com/vaultmedia/vaultmedia-backend/internal/http/response"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/apierr"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/dbctx"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/logger"
	"github.com/vaultmedia/vaultmedia-backend/internal/services"
)

type NotificationHandler struct {
	log                 *logger.Logger
	notificationService services.NotificationService
}

func NewNotificationHandler(baseLog *logger.Logger, notificationService services.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		log:                 baseLog.With("handler", "NotificationHandler"),
		notificationService: notificationService,
	}
}

// GET /api/notifications
func (h *NotificationHandler) List(c *gin.Context) {
	user := middleware.CurrentUser(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	unreadOnly := c.Query("unread") == "true"
	notifications, err := h.notificationService.List(dbctx.Context{Ctx: c.Request.Context()}, user.ID, unreadOnly, limit)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"notifications": notifications})
}

// POST /api/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	user := middleware.CurrentUser(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil || id == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeValidation, fmt.Errorf("invalid notification id"))
		return
	}
	if err := h.notificationService.MarkRead(dbctx.Context{Ctx: c.Request.Context()}, user.ID, id); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// POST /api/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if err := h.notificationService.MarkAllRead(dbctx.Context{Ctx: c.Request.Context()}, user.ID); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

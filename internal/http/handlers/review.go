package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vaultmedia/vaultmedia-backend/internal/http/middleware"
	"github.com/vaultmedia/vaultmedia-backend/internal/http/response"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/apierr"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/dbctx"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/logger"
	"github.com/vaultmedia/vaultmedia-backend/internal/services"
)

type ReviewHandler struct {
	log           *logger.Logger
	reviewService services.ReviewService
}

func NewReviewHandler(baseLog *logger.Logger, reviewService services.ReviewService) *ReviewHandler {
	return &ReviewHandler{
		log:           baseLog.With("handler", "ReviewHandler"),
		reviewService: reviewService,
	}
}

type submitReviewRequest struct {
	AssetID uuid.UUID `json:"asset_id"`
}

// POST /api/reviews
func (h *ReviewHandler) Submit(c *gin.Context) {
	user := middleware.CurrentUser(c)
	var req submitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.AssetID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeValidation, fmt.Errorf("asset_id is required"))
		return
	}
	review, err := h.reviewService.SubmitForReview(dbctx.Context{Ctx: c.Request.Context()}, user.ID, req.AssetID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, review)
}

// POST /api/reviews/:id/decision
func (h *ReviewHandler) Decide(c *gin.Context) {
	user := middleware.CurrentUser(c)
	reviewID, err := uuid.Parse(c.Param("id"))
	if err != nil || reviewID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeValidation, fmt.Errorf("invalid review id"))
		return
	}
	var decision services.Decision
	if err := c.ShouldBindJSON(&decision); err != nil {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeValidation, fmt.Errorf("invalid request body"))
		return
	}
	review, err := h.reviewService.Decide(dbctx.Context{Ctx: c.Request.Context()}, user, reviewID, decision)
	if err != nil {
		h.log.Warn("Decide failed", "error", err, "review_id", reviewID, "actor_id", user.ID)
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, review)
}

// GET /api/assets/:id/reviews
func (h *ReviewHandler) ListForAsset(c *gin.Context) {
	assetID, err := uuid.Parse(c.Param("id"))
	if err != nil || assetID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeValidation, fmt.Errorf("invalid asset id"))
		return
	}
	reviews, err := h.reviewService.ListForAsset(dbctx.Context{Ctx: c.Request.Context()}, assetID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"reviews": reviews})
}

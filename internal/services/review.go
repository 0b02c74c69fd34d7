package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	activityrepo "github.com/vaultmedia/vaultmedia-backend/internal/data/repos/activity"
	assetsrepo "github.com/vaultmedia/vaultmedia-backend/internal/data/repos/assets"
	reviewsrepo "github.com/vaultmedia/vaultmedia-backend/internal/data/repos/reviews"
	"github.com/vaultmedia/vaultmedia-backend/internal/domain"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/apierr"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/dbctx"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/logger"
)

// decisionEffect is the fixed fan-out per review decision: what lands in
// the activity log, what the uploader is told, and how the asset changes.
type decisionEffect struct {
	activity     domain.ActivityType
	notification domain.NotificationType
	title        string
	assetUpdates map[string]any
}

var decisionEffects = map[domain.ReviewStatus]decisionEffect{
	domain.ReviewApproved: {
		activity:     domain.ActivityAssetApproved,
		notification: domain.NotificationReviewCompleted,
		title:        "Asset approved",
		assetUpdates: map[string]any{"ready_for_publishing": true},
	},
	domain.ReviewRejected: {
		activity:     domain.ActivityAssetRejected,
		notification: domain.NotificationReviewCompleted,
		title:        "Asset rejected",
		assetUpdates: map[string]any{"ready_for_publishing": false},
	},
	domain.ReviewNeedsRevision: {
		activity:     domain.ActivityRevisionRequested,
		notification: domain.NotificationRevisionRequested,
		title:        "Revision requested",
		assetUpdates: map[string]any{
			"ready_for_publishing": false,
			"processing_status":    domain.ProcessingNeedsRevision,
		},
	},
}

type Decision struct {
	Status   domain.ReviewStatus `json:"status"`
	Comments string              `json:"comments"`
	Reasons  []string            `json:"reasons"`
}

type ReviewService interface {
	// SubmitForReview opens a PENDING review for a processed asset. At most
	// one PENDING review may exist per asset.
	SubmitForReview(dbc dbctx.Context, uploaderID, assetID uuid.UUID) (*domain.Review, error)
	// Decide transitions a PENDING review to a decision. Deciding a review
	// that already left PENDING is a conflict, never a silent overwrite.
	Decide(dbc dbctx.Context, reviewer *domain.User, reviewID uuid.UUID, decision Decision) (*domain.Review, error)
	ListForAsset(dbc dbctx.Context, assetID uuid.UUID) ([]*domain.Review, error)
}

type reviewService struct {
	db               *gorm.DB
	log              *logger.Logger
	reviewRepo       reviewsrepo.ReviewRepo
	assetRepo        assetsrepo.AssetRepo
	activityRepo     activityrepo.ActivityRepo
	notificationRepo activityrepo.NotificationRepo
}

func NewReviewService(
	db *gorm.DB,
	baseLog *logger.Logger,
	reviewRepo reviewsrepo.ReviewRepo,
	assetRepo assetsrepo.AssetRepo,
	activityRepo activityrepo.ActivityRepo,
	notificationRepo activityrepo.NotificationRepo,
) ReviewService {
	return &reviewService{
		db:               db,
		log:              baseLog.With("service", "ReviewService"),
		reviewRepo:       reviewRepo,
		assetRepo:        assetRepo,
		activityRepo:     activityRepo,
		notificationRepo: notificationRepo,
	}
}

func (rs *reviewService) SubmitForReview(dbc dbctx.Context, uploaderID, assetID uuid.UUID) (*domain.Review, error) {
	var review *domain.Review
	err := rs.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}

		asset, err := rs.assetRepo.GetByIDForUpdate(txc, assetID)
		if err != nil {
			return fmt.Errorf("load asset: %w", err)
		}
		if asset == nil {
			return apierr.NotFound(fmt.Errorf("asset not found"))
		}
		if asset.UploadedByID != uploaderID {
			return apierr.Forbidden(fmt.Errorf("only the uploader may submit an asset for review"))
		}
		if asset.IsArchived {
			return apierr.Conflict(fmt.Errorf("archived assets cannot be reviewed"))
		}
		if asset.ProcessingStatus != domain.ProcessingCompleted {
			return apierr.Conflict(fmt.Errorf("asset must finish processing before review, current status %s", asset.ProcessingStatus))
		}

		pending, err := rs.reviewRepo.CountPendingByAssetID(txc, assetID)
		if err != nil {
			return fmt.Errorf("count pending reviews: %w", err)
		}
		if pending > 0 {
			return apierr.Conflict(fmt.Errorf("asset already has a pending review"))
		}

		review = &domain.Review{
			ID:      uuid.New(),
			AssetID: assetID,
			Status:  domain.ReviewPending,
		}
		if _, err := rs.reviewRepo.Create(txc, review); err != nil {
			return fmt.Errorf("create review: %w", err)
		}
		_, err = rs.activityRepo.Create(txc, &domain.Activity{
			UserID:  uploaderID,
			AssetID: &assetID,
			Type:    domain.ActivityReviewSubmitted,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	rs.log.Info("review submitted", "review_id", review.ID, "asset_id", assetID)
	return review, nil
}

func (rs *reviewService) Decide(dbc dbctx.Context, reviewer *domain.User, reviewID uuid.UUID, decision Decision) (*domain.Review, error) {
	effect, ok := decisionEffects[decision.Status]
	if !ok {
		return nil, apierr.Validation(fmt.Errorf("invalid decision %q", decision.Status))
	}
	if !reviewer.Role.CanReview() {
		return nil, apierr.Forbidden(fmt.Errorf("role %s may not decide reviews", reviewer.Role))
	}

	var decided *domain.Review
	err := rs.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}

		review, err := rs.reviewRepo.GetByIDForUpdate(txc, reviewID)
		if err != nil {
			return fmt.Errorf("load review: %w", err)
		}
		if review == nil {
			return apierr.NotFound(fmt.Errorf("review not found"))
		}
		if review.Status != domain.ReviewPending {
			return apierr.Conflict(fmt.Errorf("review already decided as %s", review.Status))
		}

		asset, err := rs.assetRepo.GetByIDForUpdate(txc, review.AssetID)
		if err != nil {
			return fmt.Errorf("load asset: %w", err)
		}
		if asset == nil {
			return apierr.NotFound(fmt.Errorf("asset for review not found"))
		}

		now := time.Now()
		var reasons datatypes.JSON
		if len(decision.Reasons) > 0 {
			b, _ := json.Marshal(decision.Reasons)
			reasons = datatypes.JSON(b)
		}
		if err := rs.reviewRepo.UpdateFields(txc, review.ID, map[string]any{
			"status":      decision.Status,
			"reviewer_id": reviewer.ID,
			"comments":    decision.Comments,
			"reasons":     reasons,
			"decided_at":  now,
			"updated_at":  now,
		}); err != nil {
			return fmt.Errorf("update review: %w", err)
		}

		updates := map[string]any{"updated_at": now}
		for k, v := range effect.assetUpdates {
			updates[k] = v
		}
		if err := rs.assetRepo.UpdateFields(txc, asset.ID, updates); err != nil {
			return fmt.Errorf("update asset: %w", err)
		}

		detail, _ := json.Marshal(map[string]any{"review_id": review.ID, "decision": decision.Status})
		if _, err := rs.activityRepo.Create(txc, &domain.Activity{
			UserID:  reviewer.ID,
			AssetID: &asset.ID,
			Type:    effect.activity,
			Detail:  datatypes.JSON(detail),
		}); err != nil {
			return fmt.Errorf("log activity: %w", err)
		}

		body := fmt.Sprintf("%s was %s", asset.OriginalFilename, decisionVerb(decision.Status))
		if decision.Comments != "" {
			body += ": " + decision.Comments
		}
		if _, err := rs.notificationRepo.Create(txc, &domain.Notification{
			RecipientID: asset.UploadedByID,
			AssetID:     &asset.ID,
			Type:        effect.notification,
			Title:       effect.title,
			Body:        body,
		}); err != nil {
			return fmt.Errorf("notify uploader: %w", err)
		}

		review.Status = decision.Status
		review.ReviewerID = &reviewer.ID
		review.Comments = decision.Comments
		review.Reasons = reasons
		review.DecidedAt = &now
		decided = review
		return nil
	})
	if err != nil {
		return nil, err
	}
	rs.log.Info("review decided", "review_id", reviewID, "decision", decision.Status, "reviewer_id", reviewer.ID)
	return decided, nil
}

func (rs *reviewService) ListForAsset(dbc dbctx.Context, assetID uuid.UUID) ([]*domain.Review, error) {
	return rs.reviewRepo.ListByAssetID(dbc, assetID)
}

func decisionVerb(s domain.ReviewStatus) string {
	switch s {
	case domain.ReviewApproved:
		return "approved"
	case domain.ReviewRejected:
		return "rejected"
	default:
		return "sent back for revision"
	}
}

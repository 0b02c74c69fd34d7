package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vaultmedia/vaultmedia-backend/internal/clients/gcs"
	assetsrepo "github.com/vaultmedia/vaultmedia-backend/internal/data/repos/assets"
	jobsrepo "github.com/vaultmedia/vaultmedia-backend/internal/data/repos/jobs"
	"github.com/vaultmedia/vaultmedia-backend/internal/domain"
	"github.com/vaultmedia/vaultmedia-backend/internal/jobs"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/apierr"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/dbctx"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/logger"
)

// AdminService holds operator-only actions. Terminal processing failures
// need a human decision, so retry is manual.
type AdminService interface {
	// RetryProcessing resets a FAILED asset to PENDING and requeues its job.
	RetryProcessing(dbc dbctx.Context, actor *domain.User, assetID uuid.UUID) error
}

type adminService struct {
	db          *gorm.DB
	log         *logger.Logger
	bucket      gcs.BucketService
	assetRepo   assetsrepo.AssetRepo
	variantRepo assetsrepo.VariantRepo
	jobRepo     jobsrepo.JobRepo
}

func NewAdminService(
	db *gorm.DB,
	baseLog *logger.Logger,
	bucket gcs.BucketService,
	assetRepo assetsrepo.AssetRepo,
	variantRepo assetsrepo.VariantRepo,
	jobRepo jobsrepo.JobRepo,
) AdminService {
	return &adminService{
		db:          db,
		log:         baseLog.With("service", "AdminService"),
		bucket:      bucket,
		assetRepo:   assetRepo,
		variantRepo: variantRepo,
		jobRepo:     jobRepo,
	}
}

func (s *adminService) RetryProcessing(dbc dbctx.Context, actor *domain.User, assetID uuid.UUID) error {
	if actor == nil || actor.Role != domain.RoleAdmin {
		return apierr.Forbidden(fmt.Errorf("processing retry requires the ADMIN role"))
	}
	err := s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}

		asset, err := s.assetRepo.GetByIDForUpdate(txc, assetID)
		if err != nil {
			return fmt.Errorf("load asset: %w", err)
		}
		if asset == nil {
			return apierr.NotFound(fmt.Errorf("asset not found"))
		}
		if asset.ProcessingStatus != domain.ProcessingFailed {
			return apierr.Conflict(fmt.Errorf("asset is %s, only FAILED assets can be retried", asset.ProcessingStatus))
		}

		jobType := jobTypeForAsset(asset.Type)
		if jobType == "" {
			return apierr.Conflict(fmt.Errorf("asset type %s has no processing pipeline", asset.Type))
		}

		active, err := s.jobRepo.HasActiveJobForAsset(txc, assetID)
		if err != nil {
			return fmt.Errorf("check active jobs: %w", err)
		}
		if active {
			return apierr.Conflict(fmt.Errorf("asset already has a queued or running job"))
		}

		// Renditions from the failed run go away so the rerun starts clean.
		if err := s.variantRepo.DeleteByAssetID(txc, assetID); err != nil {
			return fmt.Errorf("clear variants: %w", err)
		}

		if err := s.assetRepo.UpdateFields(txc, assetID, map[string]any{
			"processing_status": domain.ProcessingPending,
			"processing_error":  "",
			"updated_at":        time.Now(),
		}); err != nil {
			return fmt.Errorf("reset asset: %w", err)
		}
		_, err = s.jobRepo.Enqueue(txc, &domain.ProcessingJob{
			ID:      uuid.New(),
			AssetID: assetID,
			JobType: jobType,
			Status:  domain.JobQueued,
		})
		return err
	})
	if err != nil {
		return err
	}

	s.cleanupVariantObjects(dbc, assetID)
	return nil
}

// cleanupVariantObjects removes stored renditions after a retry is
// committed. Best effort: deterministic variant keys mean a leftover is
// overwritten on the next run anyway.
func (s *adminService) cleanupVariantObjects(dbc dbctx.Context, assetID uuid.UUID) {
	keys, err := s.bucket.ListKeys(dbc.Ctx, jobs.VariantPrefix(assetID))
	if err != nil {
		s.log.Warn("list variant objects failed", "error", err, "asset_id", assetID)
		return
	}
	for _, key := range keys {
		if err := s.bucket.Delete(dbc.Ctx, key); err != nil && !errors.Is(err, gcs.ErrObjectNotFound) {
			s.log.Warn("delete variant object failed", "error", err, "key", key)
		}
	}
}

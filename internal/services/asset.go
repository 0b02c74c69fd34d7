package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vaultmedia/vaultmedia-backend/internal/clients/gcs"
	activityrepo "github.com/vaultmedia/vaultmedia-backend/internal/data/repos/activity"
	assetsrepo "github.com/vaultmedia/vaultmedia-backend/internal/data/repos/assets"
	"github.com/vaultmedia/vaultmedia-backend/internal/domain"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/apierr"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/dbctx"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/envutil"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/logger"
)

type DownloadGrant struct {
	URL      string `json:"url"`
	FileName string `json:"file_name"`
}

type AssetService interface {
	Get(dbc dbctx.Context, callerID uuid.UUID, callerRole domain.Role, assetID uuid.UUID) (*domain.Asset, error)
	List(dbc dbctx.Context, callerID uuid.UUID, filter assetsrepo.ListFilter) ([]*domain.Asset, error)
	Variants(dbc dbctx.Context, callerID uuid.UUID, callerRole domain.Role, assetID uuid.UUID) ([]*domain.AssetVariant, error)
	Archive(dbc dbctx.Context, callerID, assetID uuid.UUID) error
	// DownloadURL signs a time-limited GET URL and records the download:
	// activity row, asset counter and daily analytics, one transaction.
	DownloadURL(dbc dbctx.Context, caller *domain.User, assetID uuid.UUID, displayName string) (*DownloadGrant, error)
	// RecordView tracks one view. Archived assets are never tracked.
	RecordView(dbc dbctx.Context, callerID, assetID uuid.UUID) error
}

type assetService struct {
	db            *gorm.DB
	log           *logger.Logger
	bucket        gcs.BucketService
	assetRepo     assetsrepo.AssetRepo
	variantRepo   assetsrepo.VariantRepo
	analyticsRepo assetsrepo.AnalyticsRepo
	activityRepo  activityrepo.ActivityRepo
	urlTTL        time.Duration
}

func NewAssetService(
	db *gorm.DB,
	baseLog *logger.Logger,
	bucket gcs.BucketService,
	assetRepo assetsrepo.AssetRepo,
	variantRepo assetsrepo.VariantRepo,
	analyticsRepo assetsrepo.AnalyticsRepo,
	activityRepo activityrepo.ActivityRepo,
) AssetService {
	return &assetService{
		db:            db,
		log:           baseLog.With("service", "AssetService"),
		bucket:        bucket,
		assetRepo:     assetRepo,
		variantRepo:   variantRepo,
		analyticsRepo: analyticsRepo,
		activityRepo:  activityRepo,
		urlTTL:        time.Duration(envutil.GetEnvAsInt("SIGNED_URL_TTL_SECONDS", 3600, baseLog)) * time.Second,
	}
}

// loadVisible returns the asset when the caller may see it. Uploaders see
// their own assets; everyone else only sees published ones.
func (s *assetService) loadVisible(dbc dbctx.Context, caller uuid.UUID, assetID uuid.UUID, role domain.Role) (*domain.Asset, error) {
	asset, err := s.assetRepo.GetByID(dbc, assetID)
	if err != nil {
		return nil, fmt.Errorf("load asset: %w", err)
	}
	if asset == nil {
		return nil, apierr.NotFound(fmt.Errorf("asset not found"))
	}
	if asset.UploadedByID == caller || role.CanReview() {
		return asset, nil
	}
	if asset.IsArchived || !asset.ReadyForPublishing {
		return nil, apierr.NotFound(fmt.Errorf("asset not found"))
	}
	return asset, nil
}

func (s *assetService) Get(dbc dbctx.Context, callerID uuid.UUID, callerRole domain.Role, assetID uuid.UUID) (*domain.Asset, error) {
	return s.loadVisible(dbc, callerID, assetID, callerRole)
}

func (s *assetService) List(dbc dbctx.Context, callerID uuid.UUID, filter assetsrepo.ListFilter) ([]*domain.Asset, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	return s.assetRepo.ListByUploader(dbc, callerID, filter)
}

func (s *assetService) Variants(dbc dbctx.Context, callerID uuid.UUID, callerRole domain.Role, assetID uuid.UUID) ([]*domain.AssetVariant, error) {
	if _, err := s.loadVisible(dbc, callerID, assetID, callerRole); err != nil {
		return nil, err
	}
	return s.variantRepo.GetByAssetID(dbc, assetID)
}

func (s *assetService) Archive(dbc dbctx.Context, callerID, assetID uuid.UUID) error {
	asset, err := s.assetRepo.GetByID(dbc, assetID)
	if err != nil {
		return fmt.Errorf("load asset: %w", err)
	}
	if asset == nil {
		return apierr.NotFound(fmt.Errorf("asset not found"))
	}
	if asset.UploadedByID != callerID {
		return apierr.Forbidden(fmt.Errorf("only the uploader may archive an asset"))
	}
	if asset.IsArchived {
		return nil
	}
	return s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}
		if err := s.assetRepo.Archive(txc, assetID); err != nil {
			return err
		}
		_, err := s.activityRepo.Create(txc, &domain.Activity{
			UserID:  callerID,
			AssetID: &assetID,
			Type:    domain.ActivityAssetArchived,
		})
		return err
	})
}

func (s *assetService) DownloadURL(dbc dbctx.Context, caller *domain.User, assetID uuid.UUID, displayName string) (*DownloadGrant, error) {
	if !caller.CanDownload {
		return nil, apierr.Forbidden(fmt.Errorf("downloads are disabled for this account"))
	}
	asset, err := s.loadVisible(dbc, caller.ID, assetID, caller.Role)
	if err != nil {
		return nil, err
	}
	if asset.IsArchived {
		return nil, apierr.NotFound(fmt.Errorf("asset not found"))
	}

	name := displayName
	if name == "" {
		name = asset.OriginalFilename
	}
	url, err := s.bucket.SignedDownloadURL(dbc.Ctx, asset.FileKey, name, s.urlTTL)
	if err != nil {
		return nil, fmt.Errorf("sign download url: %w", err)
	}

	err = s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}
		if err := s.assetRepo.IncrementDownloadCount(txc, asset.ID); err != nil {
			return err
		}
		if err := s.analyticsRepo.IncrementDownload(txc, asset.ID, time.Now()); err != nil {
			return err
		}
		_, err := s.activityRepo.Create(txc, &domain.Activity{
			UserID:  caller.ID,
			AssetID: &asset.ID,
			Type:    domain.ActivityAssetDownloaded,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("record download: %w", err)
	}
	return &DownloadGrant{URL: url, FileName: name}, nil
}

func (s *assetService) RecordView(dbc dbctx.Context, callerID, assetID uuid.UUID) error {
	asset, err := s.assetRepo.GetByID(dbc, assetID)
	if err != nil {
		return fmt.Errorf("load asset: %w", err)
	}
	if asset == nil {
		return apierr.NotFound(fmt.Errorf("asset not found"))
	}
	if asset.IsArchived {
		// Archived assets drop out of tracking entirely.
		return nil
	}
	return s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}
		if _, err := s.activityRepo.Create(txc, &domain.Activity{
			UserID:  callerID,
			AssetID: &assetID,
			Type:    domain.ActivityAssetViewed,
		}); err != nil {
			return err
		}
		return s.analyticsRepo.IncrementView(txc, assetID, time.Now())
	})
}

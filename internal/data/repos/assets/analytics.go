package assets

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vaultmedia/vaultmedia-backend/internal/domain"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/dbctx"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/logger"
)

type AnalyticsRepo interface {
	// IncrementView / IncrementDownload create-or-increment the (asset, day)
	// row in a single statement; concurrent callers never lose an increment.
	IncrementView(dbc dbctx.Context, assetID uuid.UUID, day time.Time) error
	IncrementDownload(dbc dbctx.Context, assetID uuid.UUID, day time.Time) error
	GetByAssetAndDay(dbc dbctx.Context, assetID uuid.UUID, day time.Time) (*domain.AssetAnalytics, error)
}

type analyticsRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAnalyticsRepo(db *gorm.DB, baseLog *logger.Logger) AnalyticsRepo {
	return &analyticsRepo{db: db, log: baseLog.With("repo", "AnalyticsRepo")}
}

func (r *analyticsRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

const upsertCounterSQL = `
INSERT INTO asset_analytics (id, asset_id, day, view_count, download_count, updated_at)
VALUES (uuid_generate_v4(), ?, ?, ?, ?, now())
ON CONFLICT (asset_id, day)
DO UPDATE SET view_count = asset_analytics.view_count + EXCLUDED.view_count,
              download_count = asset_analytics.download_count + EXCLUDED.download_count,
              updated_at = now()`

func (r *analyticsRepo) IncrementView(dbc dbctx.Context, assetID uuid.UUID, day time.Time) error {
	return r.handle(dbc).WithContext(dbc.Ctx).
		Exec(upsertCounterSQL, assetID, day.Format("2006-01-02"), 1, 0).Error
}

func (r *analyticsRepo) IncrementDownload(dbc dbctx.Context, assetID uuid.UUID, day time.Time) error {
	return r.handle(dbc).WithContext(dbc.Ctx).
		Exec(upsertCounterSQL, assetID, day.Format("2006-01-02"), 0, 1).Error
}

func (r *analyticsRepo) GetByAssetAndDay(dbc dbctx.Context, assetID uuid.UUID, day time.Time) (*domain.AssetAnalytics, error) {
	var row domain.AssetAnalytics
	err := r.handle(dbc).WithContext(dbc.Ctx).
		Where("asset_id = ? AND day = ?", assetID, day.Format("2006-01-02")).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

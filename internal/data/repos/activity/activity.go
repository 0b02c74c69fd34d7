package activity

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vaultmedia/vaultmedia-backend/internal/domain"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/dbctx"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/logger"
)

// ActivityRepo is append-only on purpose: no update or delete methods.
type ActivityRepo interface {
	Create(dbc dbctx.Context, act *domain.Activity) (*domain.Activity, error)
	ListByAssetID(dbc dbctx.Context, assetID uuid.UUID, limit int) ([]*domain.Activity, error)
	ListByUserID(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*domain.Activity, error)
	CountByAssetAndType(dbc dbctx.Context, assetID uuid.UUID, actType domain.ActivityType) (int64, error)
}

type activityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewActivityRepo(db *gorm.DB, baseLog *logger.Logger) ActivityRepo {
	return &activityRepo{db: db, log: baseLog.With("repo", "ActivityRepo")}
}

func (r *activityRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *activityRepo) Create(dbc dbctx.Context, act *domain.Activity) (*domain.Activity, error) {
	if err := r.handle(dbc).WithContext(dbc.Ctx).Create(act).Error; err != nil {
		return nil, err
	}
	return act, nil
}

func (r *activityRepo) ListByAssetID(dbc dbctx.Context, assetID uuid.UUID, limit int) ([]*domain.Activity, error) {
	q := r.handle(dbc).WithContext(dbc.Ctx).Where("asset_id = ?", assetID)
	if limit > 0 {
		q = q.Limit(limit)
	}
	var results []*domain.Activity
	if err := q.Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *activityRepo) ListByUserID(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*domain.Activity, error) {
	q := r.handle(dbc).WithContext(dbc.Ctx).Where("user_id = ?", userID)
	if limit > 0 {
		q = q.Limit(limit)
	}
	var results []*domain.Activity
	if err := q.Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *activityRepo) CountByAssetAndType(dbc dbctx.Context, assetID uuid.UUID, actType domain.ActivityType) (int64, error) {
	var count int64
	if err := r.handle(dbc).WithContext(dbc.Ctx).
		Model(&domain.Activity{}).
		Where("asset_id = ? AND type = ?", assetID, actType).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

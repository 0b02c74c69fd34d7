package reviews

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vaultmedia/vaultmedia-backend/internal/domain"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/dbctx"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/logger"
)

type ReviewRepo interface {
	Create(dbc dbctx.Context, review *domain.Review) (*domain.Review, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Review, error)
	// GetByIDForUpdate locks the row for a transition; call inside a transaction.
	GetByIDForUpdate(dbc dbctx.Context, id uuid.UUID) (*domain.Review, error)
	ListByAssetID(dbc dbctx.Context, assetID uuid.UUID) ([]*domain.Review, error)
	CountPendingByAssetID(dbc dbctx.Context, assetID uuid.UUID) (int64, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error
}

type reviewRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReviewRepo(db *gorm.DB, baseLog *logger.Logger) ReviewRepo {
	return &reviewRepo{db: db, log: baseLog.With("repo", "ReviewRepo")}
}

func (r *reviewRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *reviewRepo) Create(dbc dbctx.Context, review *domain.Review) (*domain.Review, error) {
	if err := r.handle(dbc).WithContext(dbc.Ctx).Create(review).Error; err != nil {
		return nil, err
	}
	return review, nil
}

func (r *reviewRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Review, error) {
	var review domain.Review
	err := r.handle(dbc).WithContext(dbc.Ctx).Where("id = ?", id).First(&review).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepo) GetByIDForUpdate(dbc dbctx.Context, id uuid.UUID) (*domain.Review, error) {
	var review domain.Review
	err := r.handle(dbc).WithContext(dbc.Ctx).
		Raw(`SELECT * FROM review WHERE id = ? FOR UPDATE`, id).
		Scan(&review).Error
	if err != nil {
		return nil, err
	}
	if review.ID == uuid.Nil {
		return nil, nil
	}
	return &review, nil
}

func (r *reviewRepo) ListByAssetID(dbc dbctx.Context, assetID uuid.UUID) ([]*domain.Review, error) {
	var results []*domain.Review
	if err := r.handle(dbc).WithContext(dbc.Ctx).
		Where("asset_id = ?", assetID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *reviewRepo) CountPendingByAssetID(dbc dbctx.Context, assetID uuid.UUID) (int64, error) {
	var count int64
	if err := r.handle(dbc).WithContext(dbc.Ctx).
		Model(&domain.Review{}).
		Where("asset_id = ? AND status = ?", assetID, domain.ReviewPending).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *reviewRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.handle(dbc).WithContext(dbc.Ctx).
		Model(&domain.Review{}).
		Where("id = ?", id).
		Updates(updates).Error
}

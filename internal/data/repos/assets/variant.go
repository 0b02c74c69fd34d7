package assets

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vaultmedia/vaultmedia-backend/internal/domain"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/dbctx"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/logger"
)

type VariantRepo interface {
	// Upsert replaces any existing variant of the same kind for the asset,
	// which keeps re-run processing jobs idempotent.
	Upsert(dbc dbctx.Context, variant *domain.AssetVariant) (*domain.AssetVariant, error)
	GetByAssetID(dbc dbctx.Context, assetID uuid.UUID) ([]*domain.AssetVariant, error)
	DeleteByAssetID(dbc dbctx.Context, assetID uuid.UUID) error
}

type variantRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVariantRepo(db *gorm.DB, baseLog *logger.Logger) VariantRepo {
	return &variantRepo{db: db, log: baseLog.With("repo", "VariantRepo")}
}

func (r *variantRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *variantRepo) Upsert(dbc dbctx.Context, variant *domain.AssetVariant) (*domain.AssetVariant, error) {
	err := r.handle(dbc).WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "asset_id"}, {Name: "kind"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"storage_key", "mime_type", "width", "height", "size_bytes", "metadata",
			}),
		}).
		Create(variant).Error
	if err != nil {
		return nil, err
	}
	return variant, nil
}

func (r *variantRepo) GetByAssetID(dbc dbctx.Context, assetID uuid.UUID) ([]*domain.AssetVariant, error) {
	var results []*domain.AssetVariant
	if err := r.handle(dbc).WithContext(dbc.Ctx).
		Where("asset_id = ?", assetID).
		Order("kind").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *variantRepo) DeleteByAssetID(dbc dbctx.Context, assetID uuid.UUID) error {
	return r.handle(dbc).WithContext(dbc.Ctx).
		Where("asset_id = ?", assetID).
		Delete(&domain.AssetVariant{}).Error
}

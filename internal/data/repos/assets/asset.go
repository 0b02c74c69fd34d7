package assets

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vaultmedia/vaultmedia-backend/internal/domain"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/dbctx"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/logger"
)

// ListFilter narrows ListByUploader. Zero values mean "no filter".
type ListFilter struct {
	Type            domain.AssetType
	Status          domain.ProcessingStatus
	IncludeArchived bool
	Limit           int
	Offset          int
}

type AssetRepo interface {
	Create(dbc dbctx.Context, asset *domain.Asset) (*domain.Asset, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Asset, error)
	GetByIDForUpdate(dbc dbctx.Context, id uuid.UUID) (*domain.Asset, error)
	GetByFileKey(dbc dbctx.Context, fileKey string) (*domain.Asset, error)
	ListByUploader(dbc dbctx.Context, uploaderID uuid.UUID, filter ListFilter) ([]*domain.Asset, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error
	IncrementDownloadCount(dbc dbctx.Context, id uuid.UUID) error
	Archive(dbc dbctx.Context, id uuid.UUID) error
}

type assetRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssetRepo(db *gorm.DB, baseLog *logger.Logger) AssetRepo {
	return &assetRepo{db: db, log: baseLog.With("repo", "AssetRepo")}
}

func (r *assetRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *assetRepo) Create(dbc dbctx.Context, asset *domain.Asset) (*domain.Asset, error) {
	if err := r.handle(dbc).WithContext(dbc.Ctx).Create(asset).Error; err != nil {
		return nil, err
	}
	return asset, nil
}

func (r *assetRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Asset, error) {
	var asset domain.Asset
	err := r.handle(dbc).WithContext(dbc.Ctx).Where("id = ?", id).First(&asset).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &asset, nil
}

// GetByIDForUpdate takes a row lock; call inside a transaction.
func (r *assetRepo) GetByIDForUpdate(dbc dbctx.Context, id uuid.UUID) (*domain.Asset, error) {
	var asset domain.Asset
	err := r.handle(dbc).WithContext(dbc.Ctx).
		Raw(`SELECT * FROM asset WHERE id = ? FOR UPDATE`, id).
		Scan(&asset).Error
	if err != nil {
		return nil, err
	}
	if asset.ID == uuid.Nil {
		return nil, nil
	}
	return &asset, nil
}

func (r *assetRepo) GetByFileKey(dbc dbctx.Context, fileKey string) (*domain.Asset, error) {
	var asset domain.Asset
	err := r.handle(dbc).WithContext(dbc.Ctx).Where("file_key = ?", fileKey).First(&asset).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &asset, nil
}

func (r *assetRepo) ListByUploader(dbc dbctx.Context, uploaderID uuid.UUID, filter ListFilter) ([]*domain.Asset, error) {
	q := r.handle(dbc).WithContext(dbc.Ctx).
		Where("uploaded_by_id = ?", uploaderID)
	if !filter.IncludeArchived {
		q = q.Where("is_archived = false")
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.Status != "" {
		q = q.Where("processing_status = ?", filter.Status)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}
	var results []*domain.Asset
	if err := q.Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *assetRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.handle(dbc).WithContext(dbc.Ctx).
		Model(&domain.Asset{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *assetRepo) IncrementDownloadCount(dbc dbctx.Context, id uuid.UUID) error {
	return r.handle(dbc).WithContext(dbc.Ctx).
		Model(&domain.Asset{}).
		Where("id = ?", id).
		UpdateColumn("download_count", gorm.Expr("download_count + 1")).Error
}

func (r *assetRepo) Archive(dbc dbctx.Context, id uuid.UUID) error {
	return r.handle(dbc).WithContext(dbc.Ctx).
		Model(&domain.Asset{}).
		Where("id = ?", id).
		Update("is_archived", true).Error
}

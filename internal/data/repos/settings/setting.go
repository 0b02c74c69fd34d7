package settings

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vaultmedia/vaultmedia-backend/internal/domain"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/dbctx"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/logger"
)

type SettingRepo interface {
	Upsert(dbc dbctx.Context, setting *domain.AppSetting) error
	GetByKey(dbc dbctx.Context, key string) (*domain.AppSetting, error)
	List(dbc dbctx.Context) ([]*domain.AppSetting, error)
}

type settingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSettingRepo(db *gorm.DB, baseLog *logger.Logger) SettingRepo {
	return &settingRepo{db: db, log: baseLog.With("repo", "SettingRepo")}
}

func (r *settingRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *settingRepo) Upsert(dbc dbctx.Context, setting *domain.AppSetting) error {
	return r.handle(dbc).WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"cipher_text", "updated_by", "updated_at"}),
		}).
		Create(setting).Error
}

func (r *settingRepo) GetByKey(dbc dbctx.Context, key string) (*domain.AppSetting, error) {
	var row domain.AppSetting
	err := r.handle(dbc).WithContext(dbc.Ctx).Where("key = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *settingRepo) List(dbc dbctx.Context) ([]*domain.AppSetting, error) {
	var rows []*domain.AppSetting
	if err := r.handle(dbc).WithContext(dbc.Ctx).Order("key").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

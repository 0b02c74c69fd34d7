package users

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/vaultmedia/vaultmedia-backend/internal/domain"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/dbctx"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/logger"
)

type UserTokenRepo interface {
	Create(dbc dbctx.Context, token *domain.UserToken) (*domain.UserToken, error)
	GetByToken(dbc dbctx.Context, token string) (*domain.UserToken, error)
	DeleteByToken(dbc dbctx.Context, token string) error
	DeleteExpired(dbc dbctx.Context) error
}

type userTokenRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserTokenRepo(db *gorm.DB, baseLog *logger.Logger) UserTokenRepo {
	return &userTokenRepo{db: db, log: baseLog.With("repo", "UserTokenRepo")}
}

func (r *userTokenRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *userTokenRepo) Create(dbc dbctx.Context, token *domain.UserToken) (*domain.UserToken, error) {
	if err := r.handle(dbc).WithContext(dbc.Ctx).Create(token).Error; err != nil {
		return nil, err
	}
	return token, nil
}

func (r *userTokenRepo) GetByToken(dbc dbctx.Context, token string) (*domain.UserToken, error) {
	var row domain.UserToken
	err := r.handle(dbc).WithContext(dbc.Ctx).Where("token = ?", token).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *userTokenRepo) DeleteByToken(dbc dbctx.Context, token string) error {
	return r.handle(dbc).WithContext(dbc.Ctx).
		Where("token = ?", token).
		Delete(&domain.UserToken{}).Error
}

func (r *userTokenRepo) DeleteExpired(dbc dbctx.Context) error {
	return r.handle(dbc).WithContext(dbc.Ctx).
		Where("expires_at < ?", time.Now()).
		Delete(&domain.UserToken{}).Error
}

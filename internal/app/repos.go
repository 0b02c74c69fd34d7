package app

import (
	"gorm.io/gorm"

	"github.com/vaultmedia/vaultmedia-backend/internal/data/repos/activity"
	"github.com/vaultmedia/vaultmedia-backend/internal/data/repos/assets"
	"github.com/vaultmedia/vaultmedia-backend/internal/data/repos/jobs"
	"github.com/vaultmedia/vaultmedia-backend/internal/data/repos/reviews"
	"github.com/vaultmedia/vaultmedia-backend/internal/data/repos/settings"
	"github.com/vaultmedia/vaultmedia-backend/internal/data/repos/users"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/logger"
)

type Repos struct {
	User      users.UserRepo
	UserToken users.UserTokenRepo

	Asset     assets.AssetRepo
	Variant   assets.VariantRepo
	Analytics assets.AnalyticsRepo

	Review       reviews.ReviewRepo
	Activity     activity.ActivityRepo
	Notification activity.NotificationRepo

	Job     jobs.JobRepo
	Setting settings.SettingRepo
	Audit   settings.AuditRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:      users.NewUserRepo(db, log),
		UserToken: users.NewUserTokenRepo(db, log),

		Asset:     assets.NewAssetRepo(db, log),
		Variant:   assets.NewVariantRepo(db, log),
		Analytics: assets.NewAnalyticsRepo(db, log),

		Review:       reviews.NewReviewRepo(db, log),
		Activity:     activity.NewActivityRepo(db, log),
		Notification: activity.NewNotificationRepo(db, log),

		Job:     jobs.NewJobRepo(db, log),
		Setting: settings.NewSettingRepo(db, log),
		Audit:   settings.NewAuditRepo(db, log),
	}
}

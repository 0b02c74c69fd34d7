package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/vaultmedia/vaultmedia-backend/internal/data/db"
	"github.com/vaultmedia/vaultmedia-backend/internal/jobs"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/cryptobox"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/logger"
	"github.com/vaultmedia/vaultmedia-backend/internal/services"
)

type Services struct {
	Auth         services.AuthService
	Upload       services.UploadService
	Asset        services.AssetService
	Review       services.ReviewService
	Notification services.NotificationService
	Settings     services.SettingsService
	Admin        services.AdminService
	Health       services.HealthService

	JobWorker *jobs.Worker
}

func wireServices(gdb *gorm.DB, pg *db.PostgresService, log *logger.Logger, cfg Config, clients Clients, repos Repos) (Services, error) {
	log.Info("Wiring services...")

	s := Services{
		Auth:         services.NewAuthService(gdb, log, repos.User, repos.UserToken),
		Upload:       services.NewUploadService(gdb, log, clients.Bucket, repos.Asset, repos.Job, repos.Activity),
		Asset:        services.NewAssetService(gdb, log, clients.Bucket, repos.Asset, repos.Variant, repos.Analytics, repos.Activity),
		Review:       services.NewReviewService(gdb, log, repos.Review, repos.Asset, repos.Activity, repos.Notification),
		Notification: services.NewNotificationService(log, repos.Notification),
		Admin:        services.NewAdminService(gdb, log, clients.Bucket, repos.Asset, repos.Variant, repos.Job),
		Health:       services.NewHealthService(log, pg, clients.Bucket, clients.Limiter),
	}

	if cfg.EncryptionKey != "" {
		box, err := cryptobox.New(cfg.EncryptionKey)
		if err != nil {
			return Services{}, fmt.Errorf("init settings encryption: %w", err)
		}
		s.Settings = services.NewSettingsService(gdb, log, box, repos.Setting, repos.Audit)
	} else {
		log.Warn("SETTINGS_ENCRYPTION_KEY not set, settings endpoints disabled")
	}

	deps := &jobs.Deps{
		DB:            gdb,
		Log:           log,
		Bucket:        clients.Bucket,
		Jobs:          repos.Job,
		Assets:        repos.Asset,
		Variants:      repos.Variant,
		Activities:    repos.Activity,
		Notifications: repos.Notification,
	}
	registry := jobs.NewRegistry()
	if err := registry.Register(jobs.NewImageHandler(log)); err != nil {
		return Services{}, err
	}
	if err := registry.Register(jobs.NewVideoHandler(log)); err != nil {
		return Services{}, err
	}
	s.JobWorker = jobs.NewWorker(deps, registry, log)

	return s, nil
}

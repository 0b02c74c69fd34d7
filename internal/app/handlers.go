package app

import (
	httpH "github.com/vaultmedia/vaultmedia-backend/internal/http/handlers"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/logger"
)

type Handlers struct {
	Auth         *httpH.AuthHandler
	Upload       *httpH.UploadHandler
	Asset        *httpH.AssetHandler
	Review       *httpH.ReviewHandler
	Notification *httpH.NotificationHandler
	Settings     *httpH.SettingsHandler
	Health       *httpH.HealthHandler
}

func wireHandlers(log *logger.Logger, s Services) Handlers {
	log.Info("Wiring handlers...")
	h := Handlers{
		Auth:         httpH.NewAuthHandler(log, s.Auth),
		Upload:       httpH.NewUploadHandler(log, s.Upload),
		Asset:        httpH.NewAssetHandler(log, s.Asset, s.Admin),
		Review:       httpH.NewReviewHandler(log, s.Review),
		Notification: httpH.NewNotificationHandler(log, s.Notification),
		Health:       httpH.NewHealthHandler(log, s.Health),
	}
	if s.Settings != nil {
		h.Settings = httpH.NewSettingsHandler(log, s.Settings)
	}
	return h
}

package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/vaultmedia/vaultmedia-backend/internal/domain"
	httpH "github.com/vaultmedia/vaultmedia-backend/internal/http/handlers"
	httpMW "github.com/vaultmedia/vaultmedia-backend/internal/http/middleware"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	AuthMiddleware      *httpMW.AuthMiddleware
	RateLimitMiddleware *httpMW.RateLimitMiddleware
	TracingEnabled      bool

	AuthHandler         *httpH.AuthHandler
	UploadHandler       *httpH.UploadHandler
	AssetHandler        *httpH.AssetHandler
	ReviewHandler       *httpH.ReviewHandler
	NotificationHandler *httpH.NotificationHandler
	SettingsHandler     *httpH.SettingsHandler
	HealthHandler       *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingEnabled {
		r.Use(otelgin.Middleware("vaultmedia-backend"))
	}
	r.Use(httpMW.TraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.Log))

	limit := func(class httpMW.RouteClass) gin.HandlerFunc {
		if cfg.RateLimitMiddleware == nil {
			return func(c *gin.Context) { c.Next() }
		}
		return cfg.RateLimitMiddleware.Limit(class)
	}

	// Health (public, unthrottled)
	if cfg.HealthHandler != nil {
		r.GET("/api/health", cfg.HealthHandler.Check)
	}

	api := r.Group("/api")

	// Auth (public, tight limit)
	if cfg.AuthHandler != nil {
		auth := api.Group("/auth", limit(httpMW.ClassAuth))
		auth.POST("/register", cfg.AuthHandler.Register)
		auth.POST("/login", cfg.AuthHandler.Login)
		auth.POST("/refresh", cfg.AuthHandler.Refresh)
		auth.POST("/logout", cfg.AuthHandler.Logout)
	}

	protected := api.Group("", limit(httpMW.ClassAPI))
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.RequireAuth())
	}

	// Uploads carry their own tighter window on top of the API limit.
	if cfg.UploadHandler != nil {
		uploads := protected.Group("/uploads", limit(httpMW.ClassUpload))
		uploads.POST("/prepare", cfg.UploadHandler.Prepare)
		uploads.POST("/prepare-batch", cfg.UploadHandler.PrepareBatch)
		uploads.POST("/complete", cfg.UploadHandler.Complete)
	}

	if cfg.AssetHandler != nil {
		protected.GET("/assets", cfg.AssetHandler.List)
		protected.GET("/assets/:id", cfg.AssetHandler.Get)
		protected.GET("/assets/:id/variants", cfg.AssetHandler.Variants)
		protected.GET("/assets/:id/download-url", cfg.AssetHandler.DownloadURL)
		protected.POST("/assets/:id/view", cfg.AssetHandler.RecordView)
		protected.POST("/assets/:id/archive", cfg.AssetHandler.Archive)
	}

	if cfg.ReviewHandler != nil {
		protected.POST("/reviews", cfg.ReviewHandler.Submit)
		protected.GET("/assets/:id/reviews", cfg.ReviewHandler.ListForAsset)

		reviewers := protected.Group("")
		if cfg.AuthMiddleware != nil {
			reviewers.Use(cfg.AuthMiddleware.RequireRole(domain.RoleReviewer, domain.RoleAdmin))
		}
		reviewers.POST("/reviews/:id/decision", cfg.ReviewHandler.Decide)
	}

	if cfg.NotificationHandler != nil {
		protected.GET("/notifications", cfg.NotificationHandler.List)
		protected.POST("/notifications/:id/read", cfg.NotificationHandler.MarkRead)
		protected.POST("/notifications/read-all", cfg.NotificationHandler.MarkAllRead)
	}

	admins := protected.Group("")
	if cfg.AuthMiddleware != nil {
		admins.Use(cfg.AuthMiddleware.RequireRole(domain.RoleAdmin))
	}
	if cfg.SettingsHandler != nil {
		admins.GET("/settings", cfg.SettingsHandler.List)
		admins.GET("/settings/:key", cfg.SettingsHandler.Get)
		admins.PUT("/settings", cfg.SettingsHandler.Set)
	}
	if cfg.AssetHandler != nil {
		admins.POST("/assets/:id/retry-processing", cfg.AssetHandler.RetryProcessing)
	}

	return r
}

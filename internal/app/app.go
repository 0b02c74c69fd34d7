package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/vaultmedia/vaultmedia-backend/internal/data/db"
	apphttp "github.com/vaultmedia/vaultmedia-backend/internal/http"
	"github.com/vaultmedia/vaultmedia-backend/internal/observability"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Clients  Clients
	Repos    Repos
	Services Services
	Server   *apphttp.Server

	cancel       context.CancelFunc
	workers      *errgroup.Group
	otelShutdown func(context.Context) error
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "vaultmedia-backend",
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	gdb := pg.DB()

	clients, err := wireClients(log)
	if err != nil {
		log.Sync()
		return nil, err
	}

	repos := wireRepos(gdb, log)

	services, err := wireServices(gdb, pg, log, cfg, clients, repos)
	if err != nil {
		log.Sync()
		return nil, err
	}

	handlers := wireHandlers(log, services)
	middleware := wireMiddleware(log, clients, services)

	server := apphttp.NewServer(apphttp.RouterConfig{
		Log:                 log,
		AuthMiddleware:      middleware.Auth,
		RateLimitMiddleware: middleware.RateLimit,
		TracingEnabled:      observability.Enabled(),
		AuthHandler:         handlers.Auth,
		UploadHandler:       handlers.Upload,
		AssetHandler:        handlers.Asset,
		ReviewHandler:       handlers.Review,
		NotificationHandler: handlers.Notification,
		SettingsHandler:     handlers.Settings,
		HealthHandler:       handlers.Health,
	})

	return &App{
		Log:          log,
		DB:           gdb,
		Cfg:          cfg,
		Clients:      clients,
		Repos:        repos,
		Services:     services,
		Server:       server,
		otelShutdown: otelShutdown,
	}, nil
}

// Start launches the background worker pool.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	if a.Services.JobWorker != nil {
		a.workers = a.Services.JobWorker.Start(ctx)
	}
}

func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	addr := ":" + a.Cfg.Port
	a.Log.Info("HTTP server listening", "addr", addr)
	return a.Server.Run(addr)
}

// Close drains workers, stops the HTTP listener and flushes telemetry.
func (a *App) Close() {
	if a == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if a.Server != nil {
		if err := a.Server.Shutdown(ctx); err != nil {
			a.Log.Warn("http shutdown", "error", err)
		}
	}
	if a.cancel != nil {
		a.cancel()
	}
	if a.workers != nil {
		_ = a.workers.Wait()
	}
	if a.Clients.Limiter != nil {
		_ = a.Clients.Limiter.Close()
	}
	if a.otelShutdown != nil {
		_ = a.otelShutdown(ctx)
	}
	a.Log.Sync()
}

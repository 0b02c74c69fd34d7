package db

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/vaultmedia/vaultmedia-backend/internal/domain"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/envutil"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/logger"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(logg *logger.Logger) (*PostgresService, error) {
	serviceLog := logg.With("service", "PostgresService")

	host := envutil.GetEnv("POSTGRES_HOST", "localhost", logg)
	port := envutil.GetEnv("POSTGRES_PORT", "5432", logg)
	user := envutil.GetEnv("POSTGRES_USER", "postgres", logg)
	password := envutil.GetEnv("POSTGRES_PASSWORD", "", logg)
	name := envutil.GetEnv("POSTGRES_NAME", "vaultmedia", logg)
	sslMode := envutil.GetEnv("POSTGRES_SSLMODE", "disable", logg)

	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		user, password, host, port, name, sslMode,
	)

	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLog,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	if err := gdb.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		return nil, fmt.Errorf("failed to enable uuid-ossp extension: %w", err)
	}

	return &PostgresService{db: gdb, log: serviceLog}, nil
}

func (s *PostgresService) DB() *gorm.DB { return s.db }

func (s *PostgresService) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *PostgresService) AutoMigrateAll() error {
	return AutoMigrate(s.db)
}

// AutoMigrate is shared with the repo test harness.
func AutoMigrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&domain.User{},
		&domain.UserToken{},

		&domain.Asset{},
		&domain.AssetVariant{},
		&domain.Review{},
		&domain.Collection{},

		&domain.Activity{},
		&domain.Notification{},
		&domain.AssetAnalytics{},

		&domain.ProcessingJob{},

		&domain.AppSetting{},
		&domain.AuditLog{},
	)
}

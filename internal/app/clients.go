package app

import (
	"fmt"

	"github.com/vaultmedia/vaultmedia-backend/internal/clients/gcs"
	"github.com/vaultmedia/vaultmedia-backend/internal/clients/redis"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/logger"
)

type Clients struct {
	Bucket  gcs.BucketService
	Limiter redis.Limiter
}

func wireClients(log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")

	bucket, err := gcs.NewBucketService(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init bucket service: %w", err)
	}

	// A missing limiter is not fatal: rate limiting fails open.
	limiter, err := redis.NewLimiter(log)
	if err != nil {
		log.Warn("rate limiter unavailable, requests will not be throttled", "error", err)
		limiter = nil
	}

	return Clients{Bucket: bucket, Limiter: limiter}, nil
}

package app

import (
	httpMW "github.com/vaultmedia/vaultmedia-backend/internal/http/middleware"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/logger"
)

type Middleware struct {
	Auth      *httpMW.AuthMiddleware
	RateLimit *httpMW.RateLimitMiddleware
}

func wireMiddleware(log *logger.Logger, clients Clients, s Services) Middleware {
	log.Info("Wiring middleware...")
	mw := Middleware{
		Auth: httpMW.NewAuthMiddleware(log, s.Auth),
	}
	if clients.Limiter != nil {
		mw.RateLimit = httpMW.NewRateLimitMiddleware(log, clients.Limiter)
	}
	return mw
}

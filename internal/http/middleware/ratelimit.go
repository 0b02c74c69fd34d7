package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vaultmedia/vaultmedia-backend/internal/clients/redis"
	"github.com/vaultmedia/vaultmedia-backend/internal/http/response"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/apierr"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/logger"
)

// RouteClass is one rate bucket: a fixed window and a request ceiling.
type RouteClass struct {
	Name   string
	Limit  int
	Window time.Duration
}

var (
	ClassAuth   = RouteClass{Name: "auth", Limit: 5, Window: time.Minute}
	ClassAPI    = RouteClass{Name: "api", Limit: 100, Window: time.Minute}
	ClassUpload = RouteClass{Name: "upload", Limit: 10, Window: 5 * time.Minute}
)

type RateLimitMiddleware struct {
	log     *logger.Logger
	limiter redis.Limiter
}

func NewRateLimitMiddleware(baseLog *logger.Logger, limiter redis.Limiter) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		log:     baseLog.With("middleware", "RateLimitMiddleware"),
		limiter: limiter,
	}
}

// Limit enforces the class ceiling per (client IP, route class). When the
// counter store is unreachable the request proceeds: rate limiting is an
// optimization, not a correctness requirement.
func (rl *RateLimitMiddleware) Limit(class RouteClass) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.limiter == nil {
			c.Next()
			return
		}
		key := fmt.Sprintf("ratelimit:%s:%s", class.Name, c.ClientIP())
		res, err := rl.limiter.Check(c.Request.Context(), key, class.Limit, class.Window)
		if err != nil {
			rl.log.Warn("rate limiter unavailable, failing open", "class", class.Name, "error", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(class.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

		if !res.Allowed {
			c.Header("Retry-After", strconv.FormatInt(int64(time.Until(res.ResetAt).Seconds())+1, 10))
			response.RespondError(c, 429, apierr.CodeRateLimitExceeded, fmt.Errorf("too many requests, retry after %s", res.ResetAt.Format(time.RFC3339)))
			c.Abort()
			return
		}
		c.Next()
	}
}

package redis

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/vaultmedia/vaultmedia-backend/internal/platform/logger"
)

// Result is one rate-limit decision.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Limiter counts requests in fixed windows backed by Redis. Callers decide
// what to do when Redis is unreachable; the middleware fails open.
type Limiter interface {
	Check(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
	Ping(ctx context.Context) error
	Close() error
}

type limiter struct {
	log *logger.Logger
	rdb *goredis.Client
}

func NewLimiter(log *logger.Logger) (Limiter, error) {
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    os.Getenv("REDIS_PASSWORD"),
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &limiter{
		log: log.With("service", "RateLimiter"),
		rdb: rdb,
	}, nil
}

func (l *limiter) Check(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	if l == nil || l.rdb == nil {
		return Result{}, fmt.Errorf("rate limiter not initialized")
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	// INCR + set the TTL only on the first hit of the window.
	pipe := l.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	ttl := pipe.TTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, fmt.Errorf("rate limit pipeline: %w", err)
	}

	count := incr.Val()
	expiry := ttl.Val()
	if expiry < 0 {
		expiry = window
		if err := l.rdb.Expire(ctx, key, window).Err(); err != nil {
			return Result{}, fmt.Errorf("rate limit expire: %w", err)
		}
	}

	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   count <= int64(limit),
		Remaining: remaining,
		ResetAt:   time.Now().Add(expiry),
	}, nil
}

func (l *limiter) Ping(ctx context.Context) error {
	if l == nil || l.rdb == nil {
		return fmt.Errorf("rate limiter not initialized")
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return l.rdb.Ping(ctx).Err()
}

func (l *limiter) Close() error {
	if l == nil || l.rdb == nil {
		return nil
	}
	return l.rdb.Close()
}

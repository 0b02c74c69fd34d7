package services

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/vaultmedia/vaultmedia-backend/internal/clients/gcs"
	"github.com/vaultmedia/vaultmedia-backend/internal/clients/redis"
	"github.com/vaultmedia/vaultmedia-backend/internal/data/db"
	"github.com/vaultmedia/vaultmedia-backend/internal/platform/logger"
)

const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
	StatusDown     = "down"
)

type DependencyStatus struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}

type HealthReport struct {
	Status       string                      `json:"status"`
	Dependencies map[string]DependencyStatus `json:"dependencies"`
	CheckedAt    time.Time                   `json:"checked_at"`
}

// Healthy reports whether the service can serve correctness-critical
// traffic. The cache is a fail-open dependency, so a down cache degrades
// the report without failing it; database or storage down is fatal.
func (r *HealthReport) Healthy() bool { return r.Status != StatusDown }

type HealthService interface {
	CheckAll(ctx context.Context) *HealthReport
}

type healthService struct {
	log     *logger.Logger
	pg      *db.PostgresService
	bucket  gcs.BucketService
	limiter redis.Limiter
	tmpDir  string
}

func NewHealthService(baseLog *logger.Logger, pg *db.PostgresService, bucket gcs.BucketService, limiter redis.Limiter) HealthService {
	return &healthService{
		log:     baseLog.With("service", "HealthService"),
		pg:      pg,
		bucket:  bucket,
		limiter: limiter,
		tmpDir:  os.TempDir(),
	}
}

func (hs *healthService) CheckAll(ctx context.Context) *HealthReport {
	report := &HealthReport{
		Status:       StatusOK,
		Dependencies: map[string]DependencyStatus{},
		CheckedAt:    time.Now(),
	}

	report.Dependencies["database"] = hs.probe(ctx, hs.pg.Ping)
	report.Dependencies["storage"] = hs.probe(ctx, hs.bucket.Ping)
	report.Dependencies["cache"] = hs.probeCache(ctx)

	// Temp-dir writes only back thumbnails and scratch work, so a failure
	// degrades rather than kills.
	fs := hs.probe(ctx, func(context.Context) error { return hs.probeFilesystem() })
	if fs.Status == StatusDown {
		fs.Status = StatusDegraded
	}
	report.Dependencies["filesystem"] = fs

	// Hard dependencies take the whole service down; soft ones only degrade.
	for _, name := range []string{"database", "storage"} {
		if report.Dependencies[name].Status == StatusDown {
			report.Status = StatusDown
		}
	}
	if report.Status == StatusOK {
		for _, dep := range report.Dependencies {
			if dep.Status != StatusOK {
				report.Status = StatusDegraded
				break
			}
		}
	}
	return report
}

func (hs *healthService) probe(ctx context.Context, ping func(context.Context) error) DependencyStatus {
	start := time.Now()
	err := ping(ctx)
	status := DependencyStatus{Status: StatusOK, LatencyMS: time.Since(start).Milliseconds()}
	if err != nil {
		status.Status = StatusDown
		status.Error = err.Error()
	}
	return status
}

func (hs *healthService) probeCache(ctx context.Context) DependencyStatus {
	if hs.limiter == nil {
		return DependencyStatus{Status: StatusDegraded, Error: "rate limiter not configured"}
	}
	s := hs.probe(ctx, hs.limiter.Ping)
	if s.Status == StatusDown {
		// Rate limiting fails open, so an unreachable cache only degrades.
		s.Status = StatusDegraded
	}
	return s
}

func (hs *healthService) probeFilesystem() error {
	f, err := os.CreateTemp(hs.tmpDir, "healthcheck-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_, werr := f.WriteString("ok")
	cerr := f.Close()
	_ = os.Remove(filepath.Clean(name))
	if werr != nil {
		return werr
	}
	return cerr
}

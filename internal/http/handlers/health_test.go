package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vaultmedia/vaultmedia-backend/internal/platform/logger"
	"github.com/vaultmedia/vaultmedia-backend/internal/services"
)

type fakeHealthService struct{ report *services.HealthReport }

func (f *fakeHealthService) CheckAll(context.Context) *services.HealthReport { return f.report }

func healthRouter(t *testing.T, report *services.HealthReport) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	r := gin.New()
	r.GET("/api/health", NewHealthHandler(log, &fakeHealthService{report: report}).Check)
	return r
}

func TestCheckReportsOK(t *testing.T) {
	r := healthRouter(t, &services.HealthReport{
		Status: services.StatusOK,
		Dependencies: map[string]services.DependencyStatus{
			"database": {Status: services.StatusOK},
		},
		CheckedAt: time.Now(),
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body services.HealthReport
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Status != services.StatusOK {
		t.Fatalf("status = %q", body.Status)
	}
}

func TestCheckDegradedStillServes(t *testing.T) {
	r := healthRouter(t, &services.HealthReport{
		Status: services.StatusDegraded,
		Dependencies: map[string]services.DependencyStatus{
			"cache": {Status: services.StatusDegraded, Error: "connection refused"},
		},
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	// Degraded means the soft dependencies are hurting; the instance stays
	// in rotation.
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for degraded, got %d", w.Code)
	}
}

func TestCheckHardDependencyDownIs503(t *testing.T) {
	r := healthRouter(t, &services.HealthReport{
		Status: services.StatusDown,
		Dependencies: map[string]services.DependencyStatus{
			"database": {Status: services.StatusDown, Error: "dial tcp: refused"},
		},
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

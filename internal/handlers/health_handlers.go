package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"haventory/internal/caching"
	"haventory/internal/metrics"
	"haventory/internal/models"
	"haventory/internal/repositories"
	"haventory/internal/services"

	"github.com/labstack/echo/v4"
)

// Pinger is the database check used by readiness; *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandlers handles meta, health check and monitoring endpoints
type HealthHandlers struct {
	inventoryService services.InventoryService
	db               Pinger
	cacheService     caching.CacheService
	metrics          *metrics.Metrics
	version          string
	startedAt        time.Time
	now              func() time.Time
}

// NewHealthHandlers creates a new health handlers instance. db may be nil when the process runs
// without PostgreSQL (tests).
func NewHealthHandlers(inventoryService services.InventoryService, db Pinger, cacheService caching.CacheService, m *metrics.Metrics, version string) *HealthHandlers {
	if cacheService == nil {
		cacheService = caching.NewNoopCacheService()
	}
	return &HealthHandlers{
		inventoryService: inventoryService,
		db:               db,
		cacheService:     cacheService,
		metrics:          m,
		version:          version,
		startedAt:        time.Now(),
		now:              time.Now,
	}
}

// Ping handles GET /ping?echo=...
func (h *HealthHandlers) Ping(c echo.Context) error {
	var echoed any
	if v := c.QueryParam("echo"); v != "" {
		echoed = v
	}
	return c.JSON(http.StatusOK, map[string]any{
		"echo": echoed,
		"ts":   models.FormatTimestamp(h.now()),
	})
}

// Version handles GET /version
func (h *HealthHandlers) Version(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"integration_version": h.version,
		"schema_version":      repositories.CurrentSchemaVersion,
	})
}

// HealthCheck handles GET /health: index consistency of the repository plus dependency status.
func (h *HealthHandlers) HealthCheck(c echo.Context) error {
	ctx := c.Request().Context()
	report := h.inventoryService.Health(ctx)

	deps := map[string]string{
		"database": statusOf(h.checkDatabase(ctx)),
		"cache":    statusOf(h.cacheService.Ping(ctx)),
	}

	status := http.StatusOK
	if !report.Healthy || deps["database"] != "healthy" || deps["cache"] != "healthy" {
		status = http.StatusPartialContent
	}
	return c.JSON(status, map[string]any{
		"healthy":    report.Healthy,
		"issues":     report.Issues,
		"counts":     report.Counts,
		"services":   deps,
		"version":    h.version,
		"uptime":     time.Since(h.startedAt).Round(time.Second).String(),
		"goroutines": runtime.NumGoroutine(),
	})
}

func statusOf(err error) string {
	if err != nil {
		return "unhealthy"
	}
	return "healthy"
}

func (h *HealthHandlers) checkDatabase(ctx context.Context) error {
	if h.db == nil {
		return nil
	}
	return h.db.Ping(ctx)
}

// ReadinessCheck determines if the application is ready to serve traffic
func (h *HealthHandlers) ReadinessCheck(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.checkDatabase(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status":  "not_ready",
			"message": "database unavailable",
		})
	}
	if err := h.cacheService.Ping(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status":  "not_ready",
			"message": "cache unavailable",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ready",
		"message": "All systems operational",
	})
}

// LivenessCheck determines if the application is running (basic liveness probe)
func (h *HealthHandlers) LivenessCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":    "alive",
		"timestamp": models.FormatTimestamp(h.now()),
	})
}

// Metrics serves the Prometheus registry.
func (h *HealthHandlers) Metrics(c echo.Context) error {
	h.metrics.Handler().ServeHTTP(c.Response(), c.Request())
	return nil
}

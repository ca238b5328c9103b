package handlers

import (
	"net/http"
	"time"

	"convocore/internal/caching"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// HealthHandlers handles health check endpoints
type HealthHandlers struct {
	db    *pgxpool.Pool
	cache caching.CacheService
}

func NewHealthHandlers(db *pgxpool.Pool, cache caching.CacheService) *HealthHandlers {
	return &HealthHandlers{db: db, cache: cache}
}

type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services,omitempty"`
}

// Live reports process liveness only.
func (h *HealthHandlers) Live(c echo.Context) error {
	return c.JSON(http.StatusOK, &HealthStatus{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready checks the dependencies a request would touch.
func (h *HealthHandlers) Ready(c echo.Context) error {
	ctx := c.Request().Context()

	health := &HealthStatus{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services:  make(map[string]string),
	}
	status := http.StatusOK

	if err := h.db.Ping(ctx); err != nil {
		health.Services["database"] = "unhealthy"
		health.Status = "degraded"
		status = http.StatusServiceUnavailable
	} else {
		health.Services["database"] = "healthy"
	}

	if _, err := h.cache.GetString(ctx, "convocore:health"); err != nil {
		health.Services["redis"] = "unhealthy"
		health.Status = "degraded"
		status = http.StatusServiceUnavailable
	} else {
		health.Services["redis"] = "healthy"
	}

	return c.JSON(status, health)
}

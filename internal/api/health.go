package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/releasewatch/internal/logger"
)

const healthPingTimeout = 2 * time.Second

// HealthResponse is the body of GET /api/v1/health.
type HealthResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version,omitempty"`
	Database      string  `json:"database"`
	CheckRunning  bool    `json:"check_running"`
	Uptime        string  `json:"uptime"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Timestamp     string  `json:"timestamp"`
}

// healthCheck reports liveness and database reachability. It is unauthenticated.
func (s *Server) healthCheck(c echo.Context) error {
	uptime := time.Since(s.startTime)
	resp := HealthResponse{
		Status:        "healthy",
		Version:       s.config.Version,
		Database:      "ok",
		CheckRunning:  s.runner.Running(),
		Uptime:        uptime.Round(time.Second).String(),
		UptimeSeconds: uptime.Seconds(),
		Timestamp:     time.Now().Format(time.RFC3339),
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), healthPingTimeout)
	defer cancel()

	if err := s.reviews.Ping(ctx); err != nil {
		s.log.Warn("health check: database unreachable", logger.Error(err))
		resp.Status = "degraded"
		resp.Database = "unreachable"
		return c.JSON(http.StatusServiceUnavailable, resp)
	}

	return c.JSON(http.StatusOK, resp)
}

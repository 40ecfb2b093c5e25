package server

import (
	"context"
	"net/http"
	"time"

	"github.com/MYC-A/MoveUp/internal/platform/version"
	"github.com/labstack/echo/v4"
)

const readinessTimeout = 5 * time.Second

func (s *Server) registerHealthRoutes() {
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/version", s.handleVersion)
}

func (s *Server) handleLiveness(c echo.Context) error {
	return respondJSON(c, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": s.clock.Since(s.startTime).Seconds(),
	})
}

func (s *Server) handleReadiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessTimeout)
	defer cancel()

	for _, check := range s.healthChecks {
		if err := check.Check(ctx); err != nil {
			return respondJSON(c, http.StatusServiceUnavailable, map[string]any{
				"status":       "unhealthy",
				"failed_check": check.Name,
				"error":        err.Error(),
			})
		}
	}

	return respondJSON(c, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleVersion(c echo.Context) error {
	return respondJSON(c, http.StatusOK, version.Get())
}

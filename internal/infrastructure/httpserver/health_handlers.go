package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Health check handler. A failing dependency degrades the service but it
// keeps answering from the local store; only when every check fails is it
// reported unavailable.
func (s *Server) healthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	deps := make(map[string]string)
	failed, total := 0, 0
	for _, hc := range s.healthCheckers {
		if hc == nil {
			continue
		}
		total++
		if err := hc.Check(ctx); err != nil {
			deps[hc.Name()] = "unhealthy"
			failed++
		} else {
			deps[hc.Name()] = "healthy"
		}
	}
	overall := "healthy"
	code := http.StatusOK
	switch {
	case total > 0 && failed == total:
		overall = "unhealthy"
		code = http.StatusServiceUnavailable
	case failed > 0:
		overall = "degraded"
	}
	health := map[string]interface{}{
		"status":       overall,
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
		"version":      "1.0.0",
		"service":      "health-cache",
		"dependencies": deps,
	}
	if s.cacheService != nil {
		health["cache_type"] = s.cacheService.HealthStatus(ctx).Backend
	}
	return c.JSON(code, health)
}

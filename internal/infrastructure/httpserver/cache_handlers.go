package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// cacheStatus returns backend, counters and memory usage of the cache.
func (s *Server) cacheStatus(c echo.Context) error {
	if s.cacheService == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "cache not configured")
	}
	return c.JSON(http.StatusOK, s.cacheService.HealthStatus(c.Request().Context()))
}

func (s *Server) cacheStats(c echo.Context) error {
	if s.cacheService == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "cache not configured")
	}
	return c.JSON(http.StatusOK, s.cacheService.Stats())
}

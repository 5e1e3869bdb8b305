package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/avatarctic/health-cache/internal/core/domain/cache"
	"github.com/labstack/echo/v4"
)

func healthDataError(err error) error {
	switch {
	case errors.Is(err, cache.ErrInvalidKeyPart), errors.Is(err, cache.ErrInvalidTTL), errors.Is(err, cache.ErrSerialization):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

// payload reads the JSON body and the optional ttl query parameter. A missing
// ttl selects the default of the data kind.
func payload(c echo.Context) (json.RawMessage, time.Duration, error) {
	var ttl time.Duration
	if v := c.QueryParam("ttl"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, 0, echo.NewHTTPError(http.StatusBadRequest, "invalid ttl")
		}
		ttl = d
	}
	var body json.RawMessage
	if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil {
		return nil, 0, echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return body, ttl, nil
}

func (s *Server) requireHealthData() error {
	if s.healthData == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "health data cache not configured")
	}
	return nil
}

func (s *Server) cacheHealthData(c echo.Context) error {
	if err := s.requireHealthData(); err != nil {
		return err
	}
	body, ttl, err := payload(c)
	if err != nil {
		return err
	}
	key, err := s.healthData.CacheHealthData(c.Request().Context(), c.Param("user_id"), c.Param("data_type"), body, ttl)
	if err != nil {
		return healthDataError(err)
	}
	return c.JSON(http.StatusCreated, map[string]string{"key": key})
}

func (s *Server) getHealthData(c echo.Context) error {
	if err := s.requireHealthData(); err != nil {
		return err
	}
	records, err := s.healthData.GetHealthData(c.Request().Context(), c.Param("user_id"), c.Param("data_type"))
	if err != nil {
		return healthDataError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"records": records, "total": len(records)})
}

func (s *Server) cacheFamilyData(c echo.Context) error {
	if err := s.requireHealthData(); err != nil {
		return err
	}
	body, ttl, err := payload(c)
	if err != nil {
		return err
	}
	if err := s.healthData.CacheFamilyData(c.Request().Context(), c.Param("family_id"), body, ttl); err != nil {
		return healthDataError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) getFamilyData(c echo.Context) error {
	if err := s.requireHealthData(); err != nil {
		return err
	}
	var summary json.RawMessage
	found, err := s.healthData.GetFamilyData(c.Request().Context(), c.Param("family_id"), &summary)
	if err != nil {
		return healthDataError(err)
	}
	if !found {
		return echo.NewHTTPError(http.StatusNotFound, "family summary not found")
	}
	return c.JSON(http.StatusOK, summary)
}

func (s *Server) cacheAnalysis(c echo.Context) error {
	if err := s.requireHealthData(); err != nil {
		return err
	}
	body, ttl, err := payload(c)
	if err != nil {
		return err
	}
	if err := s.healthData.CacheAnalysis(c.Request().Context(), c.Param("user_id"), c.Param("analysis_id"), body, ttl); err != nil {
		return healthDataError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) getAnalysis(c echo.Context) error {
	if err := s.requireHealthData(); err != nil {
		return err
	}
	var analysis json.RawMessage
	found, err := s.healthData.GetAnalysis(c.Request().Context(), c.Param("user_id"), c.Param("analysis_id"), &analysis)
	if err != nil {
		return healthDataError(err)
	}
	if !found {
		return echo.NewHTTPError(http.StatusNotFound, "analysis not found")
	}
	return c.JSON(http.StatusOK, analysis)
}

func (s *Server) listAnalyses(c echo.Context) error {
	if err := s.requireHealthData(); err != nil {
		return err
	}
	analyses, err := s.healthData.ListAnalyses(c.Request().Context(), c.Param("user_id"))
	if err != nil {
		return healthDataError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"analyses": analyses, "total": len(analyses)})
}

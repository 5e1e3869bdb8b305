package httpserver_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avatarctic/health-cache/internal/application/services"
	"github.com/avatarctic/health-cache/internal/core/domain/cache"
	"github.com/avatarctic/health-cache/internal/core/ports"
	"github.com/avatarctic/health-cache/internal/infrastructure/httpserver"
	"github.com/avatarctic/health-cache/internal/infrastructure/memory"
	tmocks "github.com/avatarctic/health-cache/test/mocks"
)

func newHealthDataServer(t *testing.T, hd ports.HealthDataService) *httpserver.Server {
	t.Helper()
	logger, _ := logtest.NewNullLogger()
	return httpserver.NewServer(&httpserver.ServerConfig{Host: "127.0.0.1", Port: "0"}, logger, httpserver.ServerDeps{
		CacheService: &tmocks.CacheServiceMock{},
		HealthData:   hd,
		Registry:     prometheus.NewRegistry(),
	})
}

// newLocalHealthDataServer serves the real health data service over a
// local-only cache.
func newLocalHealthDataServer(t *testing.T) *httpserver.Server {
	t.Helper()
	logger, _ := logtest.NewNullLogger()
	conn := services.NewConnectionManager(nil, services.RetryPolicy{}, nil, logger)
	conn.Initialize(context.Background())
	svc := services.NewCacheService(conn, memory.NewStore(), nil, nil, nil, logger)
	t.Cleanup(func() { _ = svc.Close(context.Background()) })
	return newHealthDataServer(t, services.NewHealthDataService(svc, nil, logger))
}

func send(s *httpserver.Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

func TestHealthData_RoundTrip(t *testing.T) {
	s := newLocalHealthDataServer(t)

	rec := send(s, http.MethodPost, "/api/v1/health-data/user1/heart_rate", `{"bpm":61}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.True(t, strings.HasPrefix(created["key"], "health:user1:heart_rate:"))

	rec = send(s, http.MethodPost, "/api/v1/health-data/user1/heart_rate", `{"bpm":64}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(s, http.MethodGet, "/api/v1/health-data/user1/heart_rate")
	require.Equal(t, http.StatusOK, rec.Code)
	var listed struct {
		Records []cache.KeyValue `json:"records"`
		Total   int              `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Equal(t, 2, listed.Total)

	rec = do(s, http.MethodGet, "/api/v1/health-data/user2/heart_rate")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"records":[],"total":0}`, rec.Body.String())
}

func TestHealthData_FamilySummary(t *testing.T) {
	s := newLocalHealthDataServer(t)

	rec := do(s, http.MethodGet, "/api/v1/families/f1/summary")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = send(s, http.MethodPut, "/api/v1/families/f1/summary", `{"members":3}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(s, http.MethodGet, "/api/v1/families/f1/summary")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"members":3}`, rec.Body.String())
}

func TestHealthData_Analyses(t *testing.T) {
	s := newLocalHealthDataServer(t)

	require.Equal(t, http.StatusNoContent, send(s, http.MethodPut, "/api/v1/analyses/user1/a1", `{"score":7}`).Code)
	require.Equal(t, http.StatusNoContent, send(s, http.MethodPut, "/api/v1/analyses/user1/a2", `{"score":9}`).Code)

	rec := do(s, http.MethodGet, "/api/v1/analyses/user1/a2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"score":9}`, rec.Body.String())

	rec = do(s, http.MethodGet, "/api/v1/analyses/user1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"analyses":[{"key":"analysis:user1:a1","value":{"score":7}},{"key":"analysis:user1:a2","value":{"score":9}}],"total":2}`, rec.Body.String())

	assert.Equal(t, http.StatusNotFound, do(s, http.MethodGet, "/api/v1/analyses/user1/a3").Code)
}

func TestHealthData_RejectsBadInput(t *testing.T) {
	s := newLocalHealthDataServer(t)

	// '*' would widen the lookup into every user's records
	assert.Equal(t, http.StatusBadRequest, do(s, http.MethodGet, "/api/v1/health-data/*/heart_rate").Code)
	assert.Equal(t, http.StatusBadRequest, do(s, http.MethodGet, "/api/v1/analyses/user1:x").Code)
	assert.Equal(t, http.StatusBadRequest, send(s, http.MethodPut, "/api/v1/families/f1/summary", `{not json`).Code)
	assert.Equal(t, http.StatusBadRequest, send(s, http.MethodPut, "/api/v1/families/f1/summary?ttl=soon", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, send(s, http.MethodPut, "/api/v1/families/f1/summary?ttl=-1m", `{}`).Code)
}

func TestHealthData_PassesTTL(t *testing.T) {
	var got time.Duration
	hd := &tmocks.HealthDataServiceMock{CacheAnalysisFn: func(ctx context.Context, userID, analysisID string, data any, ttl time.Duration) error {
		got = ttl
		return nil
	}}
	s := newHealthDataServer(t, hd)

	require.Equal(t, http.StatusNoContent, send(s, http.MethodPut, "/api/v1/analyses/user1/a1?ttl=90m", `{}`).Code)
	assert.Equal(t, 90*time.Minute, got)
}

func TestHealthData_NotConfigured(t *testing.T) {
	s := newHealthDataServer(t, nil)
	assert.Equal(t, http.StatusServiceUnavailable, do(s, http.MethodGet, "/api/v1/families/f1/summary").Code)
}

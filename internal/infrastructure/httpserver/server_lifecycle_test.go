package httpserver_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avatarctic/health-cache/internal/core/ports"
	"github.com/avatarctic/health-cache/internal/infrastructure/httpserver"
	tmocks "github.com/avatarctic/health-cache/test/mocks"
)

func TestServer_StartAndShutdown(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	s := httpserver.NewServer(&httpserver.ServerConfig{Host: "127.0.0.1", Port: "0", ReadTimeout: time.Second}, logger, httpserver.ServerDeps{
		CacheService:   &tmocks.CacheServiceMock{},
		HealthCheckers: []ports.HealthChecker{stubChecker{name: "local_cache"}},
		Registry:       prometheus.NewRegistry(),
	})

	done := make(chan error, 1)
	go func() { done <- s.Start() }()
	require.Eventually(t, func() bool { return s.Addr() != nil }, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Get("http://" + s.Addr().String() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after Shutdown")
	}
}

func TestServer_StartFailsOnMissingCertificate(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	s := httpserver.NewServer(&httpserver.ServerConfig{
		Host:        "127.0.0.1",
		Port:        "0",
		TLSCertFile: "missing.crt",
		TLSKeyFile:  "missing.key",
	}, logger, httpserver.ServerDeps{Registry: prometheus.NewRegistry()})

	assert.ErrorContains(t, s.Start(), "load TLS key pair")
	assert.Nil(t, s.Addr())
}

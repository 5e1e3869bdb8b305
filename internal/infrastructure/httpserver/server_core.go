package httpserver

import (
	"time"

	"github.com/avatarctic/health-cache/internal/core/ports"
	customMiddleware "github.com/avatarctic/health-cache/internal/infrastructure/httpserver/middleware"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	TLSCertFile  string
	TLSKeyFile   string
}

type ServerDeps struct {
	CacheService   ports.CacheService
	HealthData     ports.HealthDataService
	HealthCheckers []ports.HealthChecker
	// Registry receives the HTTP metrics and is served on /metrics.
	Registry *prometheus.Registry
}

type Server struct {
	echo           *echo.Echo
	config         *ServerConfig
	logger         *logrus.Logger
	cacheService   ports.CacheService
	healthData     ports.HealthDataService
	middleware     *customMiddleware.MiddlewareCollection
	healthCheckers []ports.HealthChecker
	gatherer       prometheus.Gatherer
}

func NewServer(serverConfig *ServerConfig, logger *logrus.Logger, deps ServerDeps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	reg := deps.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	requestsTotal, requestDuration := NewHTTPMetrics(reg)

	server := &Server{
		echo:           e,
		config:         serverConfig,
		logger:         logger,
		cacheService:   deps.CacheService,
		healthData:     deps.HealthData,
		healthCheckers: deps.HealthCheckers,
		gatherer:       reg,
		middleware: customMiddleware.NewMiddlewareCollection(
			logger,
			requestsTotal,
			requestDuration,
		),
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}
